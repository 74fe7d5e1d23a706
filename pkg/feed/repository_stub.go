package feed

import (
	"context"
	"sync"
	"time"

	"github.com/dueview/dueview/pkg/events"
)

// RepositoryStub is an in-memory Repository used in tests.
type RepositoryStub struct {
	mu         sync.RWMutex
	batches    map[int][]events.Event
	importedAt map[int]time.Time
	failWith   error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		batches:    make(map[int][]events.Event),
		importedAt: make(map[int]time.Time),
	}
}

func (r *RepositoryStub) StoreBatch(ctx context.Context, userId int, batch []events.Event, importedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	stored := make([]events.Event, len(batch))
	copy(stored, batch)
	r.batches[userId] = stored
	r.importedAt[userId] = importedAt
	return nil
}

func (r *RepositoryStub) GetBatch(ctx context.Context, userId int) ([]events.Event, *time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, nil, r.failWith
	}
	batch, ok := r.batches[userId]
	if !ok {
		return []events.Event{}, nil, nil
	}
	result := make([]events.Event, len(batch))
	copy(result, batch)
	at := r.importedAt[userId]
	return result, &at, nil
}

func (r *RepositoryStub) DeleteBatch(ctx context.Context, userId int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	delete(r.batches, userId)
	delete(r.importedAt, userId)
	return nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = make(map[int][]events.Event)
	r.importedAt = make(map[int]time.Time)
	r.failWith = nil
}

func (r *RepositoryStub) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}
