package canvas

import (
	"context"
	"sync"
	"time"

	"github.com/dueview/dueview/pkg/events"
)

type RepositoryStub struct {
	mu          sync.RWMutex
	connections map[int]Connection
	caches      map[int][]events.Event
	syncedAt    map[int]time.Time
	err         error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		connections: make(map[int]Connection),
		caches:      make(map[int][]events.Event),
		syncedAt:    make(map[int]time.Time),
	}
}

func (r *RepositoryStub) StoreConnection(ctx context.Context, userId int, connection Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.connections[userId] = connection
	return nil
}

func (r *RepositoryStub) GetConnection(ctx context.Context, userId int) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, r.err
	}
	connection, exists := r.connections[userId]
	if !exists {
		return nil, nil
	}
	return &connection, nil
}

func (r *RepositoryStub) SetLocalOnly(ctx context.Context, userId int, localOnly bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	connection, exists := r.connections[userId]
	if !exists {
		return ErrNotConnected
	}
	connection.LocalOnly = localOnly
	r.connections[userId] = connection
	return nil
}

func (r *RepositoryStub) DeleteConnection(ctx context.Context, userId int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	delete(r.connections, userId)
	return nil
}

func (r *RepositoryStub) StoreCache(ctx context.Context, userId int, batch []events.Event, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	stored := make([]events.Event, len(batch))
	copy(stored, batch)
	r.caches[userId] = stored
	r.syncedAt[userId] = syncedAt
	return nil
}

func (r *RepositoryStub) GetCache(ctx context.Context, userId int) ([]events.Event, *time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, nil, r.err
	}
	batch, exists := r.caches[userId]
	if !exists {
		return []events.Event{}, nil, nil
	}
	result := make([]events.Event, len(batch))
	copy(result, batch)
	syncedAt := r.syncedAt[userId]
	return result, &syncedAt, nil
}

func (r *RepositoryStub) DeleteCache(ctx context.Context, userId int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	delete(r.caches, userId)
	delete(r.syncedAt, userId)
	return nil
}

// SetError makes every repository call fail with err until Reset.
func (r *RepositoryStub) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Reset clears all data
func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections = make(map[int]Connection)
	r.caches = make(map[int][]events.Event)
	r.syncedAt = make(map[int]time.Time)
	r.err = nil
}
