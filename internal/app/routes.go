package app

import (
	"github.com/gorilla/mux"

	"github.com/dueview/dueview/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Feed import
	r.HandleFunc("/api/feed/import/file", deps.FeedHandler.ImportFile).Methods("POST")
	r.HandleFunc("/api/feed/import/url", deps.FeedHandler.ImportURL).Methods("POST")
	r.HandleFunc("/api/feed/import/text", deps.FeedHandler.ImportText).Methods("POST")

	// Aggregated events
	r.HandleFunc("/api/events", deps.EventsHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/events/upcoming", deps.EventsHandler.GetUpcoming).Methods("GET")
	r.HandleFunc("/api/events/courses", deps.EventsHandler.GetCourses).Methods("GET")
	r.HandleFunc("/api/events/discrepancies", deps.EventsHandler.GetDiscrepancies).Methods("GET")

	// Manual events
	r.HandleFunc("/api/events", deps.EventsHandler.CreateManualEvent).Methods("POST")
	r.HandleFunc("/api/events/{eventId}", deps.EventsHandler.UpdateManualEvent).Methods("PUT")
	r.HandleFunc("/api/events/{eventId}", deps.EventsHandler.DeleteManualEvent).Methods("DELETE")
	r.HandleFunc("/api/events/{eventId}/completed", deps.EventsHandler.ToggleCompleted).Methods("PATCH")

	// User management
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Canvas integration
	r.HandleFunc("/api/integrations/canvas/connect", deps.CanvasHandler.Connect).Methods("POST")
	r.HandleFunc("/api/integrations/canvas/sync", deps.CanvasHandler.Sync).Methods("POST")
	r.HandleFunc("/api/integrations/canvas/test", deps.CanvasHandler.TestConnectivity).Methods("POST")
	r.HandleFunc("/api/integrations/canvas/status", deps.CanvasHandler.GetStatus).Methods("GET")
	r.HandleFunc("/api/integrations/canvas/local-only", deps.CanvasHandler.SetLocalOnly).Methods("PUT")
	r.HandleFunc("/api/integrations/canvas", deps.CanvasHandler.Disconnect).Methods("DELETE")

	// Google Calendar integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/sync", deps.GoogleHandler.Sync).Methods("POST")
	r.HandleFunc("/api/integrations/google/status", deps.GoogleHandler.GetStatus).Methods("GET")
	r.HandleFunc("/api/integrations/google", deps.GoogleHandler.Disconnect).Methods("DELETE")
}
