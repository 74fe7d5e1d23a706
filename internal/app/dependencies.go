package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dueview/dueview/internal/config"
	"github.com/dueview/dueview/internal/event_bus"
	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/canvas"
	"github.com/dueview/dueview/pkg/events"
	"github.com/dueview/dueview/pkg/feed"
	"github.com/dueview/dueview/pkg/google"
	"github.com/dueview/dueview/pkg/user"
	"github.com/dueview/dueview/pkg/vault"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus   *event_bus.EventBus
	Clock utils.Clock
	Vault *vault.Vault

	UserService user.Service
	UserHandler *user.Handler

	FeedRepo    feed.Repository
	FeedService feed.Service
	FeedHandler *feed.Handler

	CanvasRepo    canvas.Repository
	CanvasClient  canvas.Client
	CanvasService canvas.Service
	CanvasHandler *canvas.Handler

	GoogleAuth    *google.GoogleAuth
	GoogleRepo    google.Repository
	GoogleService google.Service
	GoogleHandler *google.Handler

	EventsRepo    events.Repository
	EventsService events.Service
	EventsHandler *events.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}
	deps.Vault = vault.New()

	deps.UserService = user.NewService(user.NewRepository(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.FeedRepo = feed.NewRepository(db)
	deps.FeedService = feed.NewService(deps.FeedRepo, deps.Clock, deps.Bus)
	deps.FeedHandler = feed.NewHandler(deps.FeedService)

	deps.CanvasRepo = canvas.NewRepository(db)
	deps.CanvasClient = canvas.NewClient()
	deps.CanvasService = canvas.NewService(deps.CanvasRepo, deps.CanvasClient, deps.Vault, deps.Clock, deps.Bus)
	deps.CanvasHandler = canvas.NewHandler(deps.CanvasService)

	deps.GoogleAuth = google.NewGoogleAuth(db, deps.UserService, cfg)
	deps.GoogleRepo = google.NewRepository(db)
	deps.GoogleService = google.NewService(deps.GoogleAuth, deps.GoogleRepo, deps.Clock, deps.Bus)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	deps.EventsRepo = events.NewRepository(db)
	deps.EventsService = events.NewService(deps.EventsRepo, deps.CanvasService, deps.FeedService, deps.GoogleService, deps.Clock)
	deps.EventsHandler = events.NewHandler(deps.EventsService)

	return deps
}
