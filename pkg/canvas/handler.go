package canvas

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/dueview/dueview/internal/rest"
	"github.com/dueview/dueview/pkg/vault"
)

type ConnectRequestDTO struct {
	Domain     string `json:"domain"`
	Token      string `json:"token"`
	Passphrase string `json:"passphrase"`
}

type SyncRequestDTO struct {
	Passphrase string `json:"passphrase"`
}

type LocalOnlyRequestDTO struct {
	Enabled bool `json:"enabled"`
}

type SyncResponseDTO struct {
	Count int `json:"count"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto ConnectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	batch, err := h.service.Connect(r.Context(), dto.Domain, dto.Token, dto.Passphrase)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(SyncResponseDTO{Count: len(batch)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto SyncRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	batch, err := h.service.Sync(r.Context(), dto.Passphrase)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(SyncResponseDTO{Count: len(batch)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disconnect(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TestConnectivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto SyncRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	status := h.service.TestConnectivity(r.Context(), dto.Passphrase)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info, err := h.service.GetConnectionInfo(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(info); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetLocalOnly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto LocalOnlyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	if err := h.service.SetLocalOnly(r.Context(), dto.Enabled); err != nil {
		if errors.Is(err, ErrNotConnected) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSyncError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNotConnected):
		status = http.StatusNotFound
	case errors.Is(err, ErrAuth), errors.Is(err, vault.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrNetwork):
		status = http.StatusBadGateway
	default:
		log.Errorf("canvas request failed: %v", err)
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
}
