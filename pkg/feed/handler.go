package feed

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dueview/dueview/internal/rest"
	"github.com/dueview/dueview/pkg/events"
	log "github.com/sirupsen/logrus"
)

type importResponse struct {
	Imported int            `json:"imported"`
	Events   []events.Event `json:"events"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// One file plus multipart overhead fits comfortably in twice the cap.
	if err := r.ParseMultipartForm(2 * MaxFeedSize); err != nil {
		writeImportError(w, ErrTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Missing file upload field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxFeedSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	imported, err := h.service.ImportFile(r.Context(), header.Filename, data)
	if err != nil {
		writeImportError(w, err)
		return
	}
	writeImported(w, imported)
}

func (h *Handler) ImportURL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	imported, err := h.service.ImportURL(r.Context(), req.URL)
	if err != nil {
		writeImportError(w, err)
		return
	}
	writeImported(w, imported)
}

func (h *Handler) ImportText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	imported, err := h.service.ImportText(r.Context(), req.Text)
	if err != nil {
		writeImportError(w, err)
		return
	}
	writeImported(w, imported)
}

func writeImported(w http.ResponseWriter, imported []events.Event) {
	if err := json.NewEncoder(w).Encode(importResponse{Imported: len(imported), Events: imported}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeImportError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrEmptyFeed), errors.Is(err, ErrInvalidURL):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNotCalendar):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, ErrNetwork):
		status = http.StatusBadGateway
	default:
		log.Errorf("feed import failed: %v", err)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
}
