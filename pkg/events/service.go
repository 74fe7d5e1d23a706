package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidEvent = errors.New("invalid event")

// BatchProvider exposes the last cached event batch of one source.
type BatchProvider interface {
	CachedEvents(ctx context.Context) ([]Event, error)
}

type Service interface {
	GetAll(ctx context.Context, filter Filter) ([]Event, error)
	Upcoming(ctx context.Context, limit int) ([]Event, error)
	Courses(ctx context.Context) ([]Course, error)
	Discrepancies(ctx context.Context) ([]Discrepancy, error)
	AddManualEvent(ctx context.Context, event Event) (*Event, error)
	ModifyManualEvent(ctx context.Context, event Event) (*Event, error)
	DeleteManualEvent(ctx context.Context, eventId string) error
	ToggleCompleted(ctx context.Context, eventId string) error
}

// ServiceImpl merges the cached batches of all sources with the user's
// manual events and applies completion overrides on top.
type ServiceImpl struct {
	repo   Repository
	remote BatchProvider // remote-api source, subject of discrepancy checks
	feed   BatchProvider // calendar-feed source, reference of discrepancy checks
	google BatchProvider // optional second calendar source, may be nil
	clock  utils.Clock
}

func NewService(repo Repository, remote, feed, google BatchProvider, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, remote: remote, feed: feed, google: google, clock: clock}
}

func (s *ServiceImpl) GetAll(ctx context.Context, filter Filter) ([]Event, error) {
	merged, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}
	return FilterEvents(merged, filter), nil
}

func (s *ServiceImpl) Upcoming(ctx context.Context, limit int) ([]Event, error) {
	merged, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}
	return UpcomingSorted(merged, s.clock.Now(), limit), nil
}

func (s *ServiceImpl) Courses(ctx context.Context) ([]Course, error) {
	merged, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}
	return CoursesOf(merged), nil
}

// Discrepancies compares the remote-api batch (subject) against the
// calendar-feed batch (reference). Unlike aggregate, a source read failure
// here is an error: a comparison against a silently-empty side would report
// every event as missing.
func (s *ServiceImpl) Discrepancies(ctx context.Context) ([]Discrepancy, error) {
	subject, err := s.remote.CachedEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load remote events: %w", err)
	}
	reference, err := s.feed.CachedEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed events: %w", err)
	}
	return ComputeDiscrepancies(subject, reference), nil
}

func (s *ServiceImpl) AddManualEvent(ctx context.Context, event Event) (*Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if event.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if event.DueAt.IsZero() {
		return nil, fmt.Errorf("%w: due time is required", ErrInvalidEvent)
	}
	if event.Category == "" {
		event.Category = CategoryPersonal
	}
	event.ID = "manual-" + uuid.NewString()
	event.SourceKind = SourceManual
	event.Priority = PriorityFor(event.Category)
	event.DueAt = event.DueAt.UTC()

	if err := s.repo.StoreManualEvent(ctx, userId, event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *ServiceImpl) ModifyManualEvent(ctx context.Context, event Event) (*Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	event.SourceKind = SourceManual
	event.Priority = PriorityFor(event.Category)
	event.DueAt = event.DueAt.UTC()

	if err := s.repo.UpdateManualEvent(ctx, userId, event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *ServiceImpl) DeleteManualEvent(ctx context.Context, eventId string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.DeleteManualEvent(ctx, userId, eventId)
}

// ToggleCompleted flips the completion flag of any visible event. Manual
// events are updated in place; events owned by a sync source get an
// override row, since their batches are replaced wholesale on every sync.
func (s *ServiceImpl) ToggleCompleted(ctx context.Context, eventId string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	merged, err := s.aggregate(ctx)
	if err != nil {
		return err
	}
	for _, e := range merged {
		if e.ID != eventId {
			continue
		}
		if e.SourceKind == SourceManual {
			e.Completed = !e.Completed
			return s.repo.UpdateManualEvent(ctx, userId, e)
		}
		return s.repo.SetCompletion(ctx, userId, eventId, !e.Completed)
	}
	return ErrEventNotFound
}

// aggregate merges all source batches and manual events, then applies the
// stored completion overrides. An unreadable source batch is logged and
// skipped so one broken source never blanks the whole list.
func (s *ServiceImpl) aggregate(ctx context.Context) ([]Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	sources := []struct {
		name     string
		provider BatchProvider
	}{
		{"remote-api", s.remote},
		{"calendar-feed", s.feed},
		{"google-calendar", s.google},
	}

	batches := make([][]Event, 0, len(sources)+1)
	for _, src := range sources {
		if src.provider == nil {
			continue
		}
		batch, err := src.provider.CachedEvents(ctx)
		if err != nil {
			log.Errorf("failed to load cached %s events: %v", src.name, err)
			continue
		}
		batches = append(batches, batch)
	}

	manual, err := s.repo.GetManualEvents(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load manual events: %w", err)
	}
	batches = append(batches, manual)

	merged := Merge(batches...)

	completions, err := s.repo.GetCompletions(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load completion states: %w", err)
	}
	for i := range merged {
		if completed, ok := completions[merged[i].ID]; ok {
			merged[i].Completed = completed
		}
	}
	return merged, nil
}
