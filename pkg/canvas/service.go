package canvas

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dueview/dueview/internal/event_bus"
	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/events"
	"github.com/dueview/dueview/pkg/user"
	"github.com/dueview/dueview/pkg/vault"
)

// ConnectionInfo is what the status endpoint exposes about a connection.
// No credential material ever appears here.
type ConnectionInfo struct {
	Connected bool       `json:"connected"`
	Domain    string     `json:"domain,omitempty"`
	LocalOnly bool       `json:"localOnly"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
}

type Service interface {
	Connect(ctx context.Context, domain string, token string, passphrase string) ([]events.Event, error)
	Sync(ctx context.Context, passphrase string) ([]events.Event, error)
	Disconnect(ctx context.Context) error
	TestConnectivity(ctx context.Context, passphrase string) Status
	SetLocalOnly(ctx context.Context, localOnly bool) error
	GetConnectionInfo(ctx context.Context) (ConnectionInfo, error)
	CachedEvents(ctx context.Context) ([]events.Event, error)
}

type ServiceImpl struct {
	repo   Repository
	client Client
	vault  *vault.Vault
	clock  utils.Clock
	bus    *event_bus.EventBus
}

func NewService(repo Repository, client Client, vault *vault.Vault, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		client: client,
		vault:  vault,
		clock:  clock,
		bus:    bus,
	}
}

// Connect validates the input, probes the Canvas instance with the given
// token, stores the connection with the token encrypted under the
// passphrase, and runs an immediate first sync. The plaintext token is
// gone once this method returns.
func (s *ServiceImpl) Connect(ctx context.Context, domain string, token string, passphrase string) ([]events.Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	domain = strings.TrimSpace(domain)
	if domain == "" || token == "" || passphrase == "" {
		return nil, ErrValidation
	}

	// Probe before persisting anything. A bad token must not leave a
	// half-configured connection behind.
	if _, err := s.client.GetProfile(ctx, domain, token); err != nil {
		log.Errorf("Canvas connectivity probe failed for domain %s: %v", domain, err)
		return nil, err
	}

	credential, err := s.vault.Encrypt(token, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	connection := Connection{Domain: domain, Credential: credential}
	if err := s.repo.StoreConnection(ctx, userId, connection); err != nil {
		return nil, err
	}

	return s.sync(ctx, userId, connection, token)
}

// Sync fetches a fresh batch of assignments. The passphrase is required on
// every call: the stored credential is useless without it. When Canvas is
// unreachable the last cached batch is returned alongside the error so
// callers can distinguish "stale data" from "no data".
func (s *ServiceImpl) Sync(ctx context.Context, passphrase string) ([]events.Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	connection, err := s.repo.GetConnection(ctx, userId)
	if err != nil {
		return nil, err
	}
	if connection == nil {
		return nil, ErrNotConnected
	}
	if connection.LocalOnly {
		batch, _, err := s.repo.GetCache(ctx, userId)
		return batch, err
	}

	token, err := s.vault.Decrypt(connection.Credential, passphrase)
	if err != nil {
		return nil, err
	}

	return s.sync(ctx, userId, *connection, token)
}

// sync is the shared fetch path for Connect and Sync. Courses are fetched
// sequentially; a course whose assignments cannot be retrieved is skipped
// so one broken course does not sink the whole batch. Only a failure to
// list courses at all aborts the sync.
func (s *ServiceImpl) sync(ctx context.Context, userId int, connection Connection, token string) ([]events.Event, error) {
	courses, err := s.client.GetActiveCourses(ctx, connection.Domain, token)
	if err != nil {
		log.Errorf("Canvas sync failed for user %d: %v", userId, err)
		cached, _, cacheErr := s.repo.GetCache(ctx, userId)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		return cached, err
	}

	batch := make([]events.Event, 0, len(courses)*4)
	now := s.clock.Now()
	for _, course := range courses {
		assignments, err := s.client.GetAssignments(ctx, connection.Domain, token, course.ID)
		if err != nil {
			log.Warnf("skipping course %d (%s): %v", course.ID, course.Name, err)
			continue
		}
		for _, assignment := range assignments {
			batch = append(batch, assignmentToEvent(course, assignment, now))
		}
	}

	if err := s.repo.StoreCache(ctx, userId, batch, now); err != nil {
		return nil, err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TopicEventsUpdated, event_bus.EventsUpdated{
		Source: string(events.SourceRemoteAPI),
		Count:  len(batch),
	})); err != nil {
		log.Errorf("failed to publish sync notification: %v", err)
	}

	log.Infof("synced %d assignments from %s for user %d", len(batch), connection.Domain, userId)
	return batch, nil
}

// Disconnect removes the connection, the encrypted credential and the
// cached batch. Nothing Canvas-related survives it.
func (s *ServiceImpl) Disconnect(ctx context.Context) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	if err := s.repo.DeleteConnection(ctx, userId); err != nil {
		return err
	}
	return s.repo.DeleteCache(ctx, userId)
}

// TestConnectivity is a read-only diagnostic. It never mutates stored
// state and reports problems as a Status instead of an error.
func (s *ServiceImpl) TestConnectivity(ctx context.Context, passphrase string) Status {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Status{OK: false, Reason: "no user in request context"}
	}

	connection, err := s.repo.GetConnection(ctx, userId)
	if err != nil {
		return Status{OK: false, Reason: "failed to load connection"}
	}
	if connection == nil {
		return Status{OK: false, Reason: "not connected"}
	}

	token, err := s.vault.Decrypt(connection.Credential, passphrase)
	if err != nil {
		return Status{OK: false, Reason: "wrong passphrase or corrupted credential"}
	}

	if _, err := s.client.GetProfile(ctx, connection.Domain, token); err != nil {
		switch {
		case errors.Is(err, ErrAuth):
			return Status{OK: false, Reason: "token rejected by Canvas"}
		case errors.Is(err, ErrNetwork):
			return Status{OK: false, Reason: "Canvas is unreachable"}
		default:
			return Status{OK: false, Reason: "unexpected response from Canvas"}
		}
	}

	return Status{OK: true}
}

// SetLocalOnly toggles offline mode. While enabled, Sync serves the cache
// without touching the network.
func (s *ServiceImpl) SetLocalOnly(ctx context.Context, localOnly bool) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetLocalOnly(ctx, userId, localOnly)
}

func (s *ServiceImpl) GetConnectionInfo(ctx context.Context) (ConnectionInfo, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("failed to get current user: %w", err)
	}

	connection, err := s.repo.GetConnection(ctx, userId)
	if err != nil {
		return ConnectionInfo{}, err
	}
	if connection == nil {
		return ConnectionInfo{Connected: false}, nil
	}

	_, syncedAt, err := s.repo.GetCache(ctx, userId)
	if err != nil {
		return ConnectionInfo{}, err
	}

	return ConnectionInfo{
		Connected: true,
		Domain:    connection.Domain,
		LocalOnly: connection.LocalOnly,
		LastSync:  syncedAt,
	}, nil
}

// CachedEvents returns the last synced batch without hitting the network.
// It feeds the aggregated event views.
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

func assignmentToEvent(course Course, assignment Assignment, now time.Time) events.Event {
	due := now.UTC()
	switch {
	case assignment.DueAt != nil:
		due = assignment.DueAt.UTC()
	case assignment.LockAt != nil:
		due = assignment.LockAt.UTC()
	case assignment.UnlockAt != nil:
		due = assignment.UnlockAt.UTC()
	}

	title := assignment.Name
	if title == "" {
		title = "Assignment"
	}

	code := course.CourseCode
	if code == "" {
		code = strconv.FormatInt(course.ID, 10)
	}

	return events.Event{
		ID:          fmt.Sprintf("assignment-%d", assignment.ID),
		Title:       title,
		Description: assignment.Description,
		Category:    events.CategoryAssignment,
		CourseLabel: course.Name,
		CourseCode:  code,
		DueAt:       due,
		Priority:    events.PriorityMedium,
		SourceKind:  events.SourceRemoteAPI,
		SourceRaw: map[string]string{
			"courseId":       strconv.FormatInt(course.ID, 10),
			"pointsPossible": strconv.FormatFloat(assignment.PointsPossible, 'f', -1, 64),
			"htmlUrl":        assignment.HTMLURL,
		},
	}
}
