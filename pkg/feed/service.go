package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dueview/dueview/internal/event_bus"
	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/events"
	"github.com/dueview/dueview/pkg/user"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNotCalendar means the input's name, URL, or content type does not
	// indicate a calendar feed.
	ErrNotCalendar = errors.New("input is not a calendar feed")
	// ErrNetwork means the feed URL could not be reached at the transport
	// level, as opposed to an HTTP status error.
	ErrNetwork = errors.New("network failure while fetching feed")
	// ErrInvalidURL means the feed URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("feed URL must start with http:// or https://")
)

// Service ingests calendar feeds from all three supported boundaries and
// keeps the parsed batch as the user's calendar-feed source.
type Service interface {
	ImportFile(ctx context.Context, filename string, data []byte) ([]events.Event, error)
	ImportURL(ctx context.Context, feedURL string) ([]events.Event, error)
	ImportText(ctx context.Context, text string) ([]events.Event, error)
	CachedEvents(ctx context.Context) ([]events.Event, error)
	LastImport(ctx context.Context) (*time.Time, error)
}

type ServiceImpl struct {
	repo   Repository
	client *http.Client
	clock  utils.Clock
	bus    *event_bus.EventBus
}

func NewService(repo Repository, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		client: &http.Client{Timeout: 15 * time.Second},
		clock:  clock,
		bus:    bus,
	}
}

// ImportFile parses an uploaded feed file. The file name must carry the
// .ics extension and the content must fit the size cap.
func (s *ServiceImpl) ImportFile(ctx context.Context, filename string, data []byte) ([]events.Event, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".ics") {
		return nil, fmt.Errorf("%w: file name must end with .ics", ErrNotCalendar)
	}
	if len(data) > MaxFeedSize {
		return nil, ErrTooLarge
	}
	return s.importText(ctx, string(data))
}

// ImportURL fetches a feed over HTTP and parses it. The response must be
// recognizable as a calendar: either the URL ends in .ics or the response
// content type is text/calendar.
func (s *ServiceImpl) ImportURL(ctx context.Context, feedURL string) ([]events.Event, error) {
	trimmed := strings.TrimSpace(feedURL)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil, ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed URL returned HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	hinted := strings.HasSuffix(lower, ".ics") || strings.Contains(contentType, "text/calendar")
	if !hinted {
		return nil, fmt.Errorf("%w: content type %q", ErrNotCalendar, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if len(body) > MaxFeedSize {
		return nil, ErrTooLarge
	}

	return s.importText(ctx, string(body))
}

// ImportText parses pasted raw feed text.
func (s *ServiceImpl) ImportText(ctx context.Context, text string) ([]events.Event, error) {
	return s.importText(ctx, text)
}

func (s *ServiceImpl) CachedEvents(ctx context.Context) ([]events.Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	batch, _, err := s.repo.GetBatch(ctx, userId)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *ServiceImpl) LastImport(ctx context.Context) (*time.Time, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	_, importedAt, err := s.repo.GetBatch(ctx, userId)
	if err != nil {
		return nil, err
	}
	return importedAt, nil
}

func (s *ServiceImpl) importText(ctx context.Context, text string) ([]events.Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	parsed, err := ParseFeed(text, s.clock)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].DueAt.Before(parsed[j].DueAt)
	})

	if err := s.repo.StoreBatch(ctx, userId, parsed, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TopicEventsUpdated, event_bus.EventsUpdated{
		Source: string(events.SourceCalendarFeed),
		Count:  len(parsed),
	})); err != nil {
		log.Errorf("failed to publish feed import notification: %v", err)
	}

	log.Infof("imported %d events from calendar feed for user %d", len(parsed), userId)
	return parsed, nil
}
