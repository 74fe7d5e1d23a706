package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dueview/dueview/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category"`
	CourseLabel string            `json:"courseLabel,omitempty"`
	CourseCode  string            `json:"courseCode,omitempty"`
	DueAt       string            `json:"dueAt"`
	Completed   bool              `json:"completed"`
	Priority    string            `json:"priority"`
	SourceKind  string            `json:"sourceKind"`
	SourceRaw   map[string]string `json:"sourceRaw,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter, err := filterFromQuery(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
		return
	}

	evs, err := h.service.GetAll(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeEvents(w, evs)
}

func (h *Handler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	evs, err := h.service.Upcoming(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeEvents(w, evs)
}

func (h *Handler) GetCourses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	courses, err := h.service.Courses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(courses); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetDiscrepancies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	records, err := h.service.Discrepancies(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(records); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateManualEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating manual event")

	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	stored, err := h.service.AddManualEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(*stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateManualEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId := mux.Vars(r)["eventId"]
	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	event.ID = eventId

	updated, err := h.service.ModifyManualEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInvalidEvent) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(eventToDTO(*updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DeleteManualEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	if err := h.service.DeleteManualEvent(r.Context(), eventId); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleCompleted(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	if err := h.service.ToggleCompleted(r.Context(), eventId); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var filter Filter
	query := r.URL.Query()

	if raw := query.Get("courses"); raw != "" {
		filter.Courses = strings.Split(raw, ",")
	}
	if raw := query.Get("categories"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			filter.Categories = append(filter.Categories, Category(c))
		}
	}
	if raw := query.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, errors.New("completed must be true or false")
		}
		filter.Completed = &completed
	}
	return filter, nil
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (Event, bool) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return Event{}, false
	}

	var dueAt time.Time
	if dto.DueAt != "" {
		parsed, err := time.Parse(time.RFC3339, dto.DueAt)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error:   "Invalid due time format",
				Details: "Due time must be in RFC3339 format",
			})
			return Event{}, false
		}
		dueAt = parsed
	}

	return Event{
		ID:          dto.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Category:    Category(dto.Category),
		CourseLabel: dto.CourseLabel,
		CourseCode:  dto.CourseCode,
		DueAt:       dueAt,
		Completed:   dto.Completed,
	}, true
}

func writeEvents(w http.ResponseWriter, evs []Event) {
	dtos := make([]EventDTO, 0, len(evs))
	for _, e := range evs {
		dtos = append(dtos, eventToDTO(e))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func eventToDTO(e Event) EventDTO {
	return EventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Category:    string(e.Category),
		CourseLabel: e.CourseLabel,
		CourseCode:  e.CourseCode,
		DueAt:       e.DueAt.Format(time.RFC3339),
		Completed:   e.Completed,
		Priority:    string(e.Priority),
		SourceKind:  string(e.SourceKind),
		SourceRaw:   e.SourceRaw,
	}
}
