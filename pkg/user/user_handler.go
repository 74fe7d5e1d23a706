package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dueview/dueview/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	created, err := h.service.CreateUser(r.Context(), req.Username, req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
			return
		}
		log.Errorf("failed to create user: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(userToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	current, err := h.service.GetCurrentUser(r.Context())
	if err != nil {
		http.Error(w, "No current user", http.StatusUnauthorized)
		return
	}
	if err := json.NewEncoder(w).Encode(userToDTO(current)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func userToDTO(u User) UserDTO {
	return UserDTO{Uid: u.Uid, Username: u.Username, DisplayName: u.DisplayName}
}
