package google

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/dueview/dueview/internal/event_bus"
	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/events"
	"github.com/dueview/dueview/pkg/feed"
	"github.com/dueview/dueview/pkg/user"
)

var ErrUnauthenticated = fmt.Errorf("user is unauthenticated, authentication is required")

// syncWindow bounds the calendar query: a month back for recently passed
// deadlines, half a year ahead.
const (
	syncWindowPast   = -30 * 24 * time.Hour
	syncWindowFuture = 182 * 24 * time.Hour
)

type Service interface {
	Sync(ctx context.Context) ([]events.Event, error)
	Disconnect(ctx context.Context) error
	IsConnected(ctx context.Context) (bool, error)
	LastSync(ctx context.Context) (*time.Time, error)
	CachedEvents(ctx context.Context) ([]events.Event, error)
}

type ServiceImpl struct {
	auth  *GoogleAuth
	repo  Repository
	clock utils.Clock
	bus   *event_bus.EventBus
}

func NewService(auth *GoogleAuth, repo Repository, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		auth:  auth,
		repo:  repo,
		clock: clock,
		bus:   bus,
	}
}

// Sync pulls events from the user's primary Google calendar and replaces
// the cached batch with them.
func (s *ServiceImpl) Sync(ctx context.Context) ([]events.Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	service, err := s.prepareGoogleService(ctx, userId)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	googleEvents, err := service.Events.List("primary").
		TimeMin(now.Add(syncWindowPast).Format(time.RFC3339)).
		TimeMax(now.Add(syncWindowFuture).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}

	batch := make([]events.Event, 0, len(googleEvents.Items))
	for _, item := range googleEvents.Items {
		event, ok := googleEventToEvent(item, now)
		if !ok {
			continue
		}
		batch = append(batch, event)
	}

	if err := s.repo.StoreCache(ctx, userId, batch, now); err != nil {
		return nil, err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TopicEventsUpdated, event_bus.EventsUpdated{
		Source: string(events.SourceGoogleCalendar),
		Count:  len(batch),
	})); err != nil {
		log.Errorf("failed to publish sync notification: %v", err)
	}

	log.Infof("synced %d events from Google Calendar for user %d", len(batch), userId)
	return batch, nil
}

// Disconnect removes the stored OAuth token and the cached batch.
func (s *ServiceImpl) Disconnect(ctx context.Context) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	if err := s.auth.deleteAuth(ctx, userId); err != nil {
		return err
	}
	return s.repo.DeleteCache(ctx, userId)
}

func (s *ServiceImpl) IsConnected(ctx context.Context) (bool, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}

	token, err := s.auth.getToken(ctx, userId)
	if err != nil {
		return false, err
	}
	return token != nil && token.AccessToken != "", nil
}

func (s *ServiceImpl) LastSync(ctx context.Context) (*time.Time, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	_, syncedAt, err := s.repo.GetCache(ctx, userId)
	return syncedAt, err
}

// CachedEvents returns the last synced batch. It feeds the aggregated
// event views.
func (s *ServiceImpl) CachedEvents(ctx context.Context) ([]events.Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	batch, _, err := s.repo.GetCache(ctx, userId)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context, userId int) (*gcal.Service, error) {
	client, err := s.auth.getClient(ctx, userId)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Google auth client: %v", err)
		log.Error(err)
		return nil, err
	}
	if client == nil {
		log.Debug("user is unauthenticated, authentication is required")
		return nil, ErrUnauthenticated
	}
	service, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %v", err)
		log.Error(err)
		return nil, err
	}

	return service, nil
}

// googleEventToEvent maps one calendar item. Items without any start
// information are dropped.
func googleEventToEvent(item *gcal.Event, now time.Time) (events.Event, bool) {
	if item == nil || item.Start == nil {
		return events.Event{}, false
	}

	var due time.Time
	switch {
	case item.Start.DateTime != "":
		parsed, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			log.Warnf("unparsable start time %q on calendar event %s, using current time", item.Start.DateTime, item.Id)
			parsed = now
		}
		due = parsed.UTC()
	case item.Start.Date != "":
		// All-day events carry a bare date; pin it to midnight UTC.
		parsed, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			log.Warnf("unparsable start date %q on calendar event %s, using current time", item.Start.Date, item.Id)
			parsed = now
		}
		due = parsed.UTC()
	default:
		return events.Event{}, false
	}

	title := item.Summary
	if title == "" {
		title = "Event"
	}
	category := feed.ClassifyTitle(title)

	return events.Event{
		ID:          "gcal-" + item.Id,
		Title:       title,
		Description: item.Description,
		Category:    category,
		CourseLabel: feed.ExtractCourseFromSummary(title),
		DueAt:       due,
		Priority:    events.PriorityFor(category),
		SourceKind:  events.SourceGoogleCalendar,
		SourceRaw: map[string]string{
			"calendarId": "primary",
			"htmlLink":   item.HtmlLink,
		},
	}, true
}
