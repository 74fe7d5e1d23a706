package events

import (
	"context"
	"sync"
)

// RepositoryStub is an in-memory Repository used in tests.
type RepositoryStub struct {
	mu          sync.RWMutex
	manual      map[int][]Event            // userId -> events, insertion order
	completions map[int]map[string]bool    // userId -> eventId -> completed
	failWith    error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		manual:      make(map[int][]Event),
		completions: make(map[int]map[string]bool),
	}
}

func (r *RepositoryStub) StoreManualEvent(ctx context.Context, userId int, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.manual[userId] = append(r.manual[userId], event)
	return nil
}

func (r *RepositoryStub) UpdateManualEvent(ctx context.Context, userId int, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for i, e := range r.manual[userId] {
		if e.ID == event.ID {
			r.manual[userId][i] = event
			return nil
		}
	}
	return ErrEventNotFound
}

func (r *RepositoryStub) DeleteManualEvent(ctx context.Context, userId int, eventId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for i, e := range r.manual[userId] {
		if e.ID == eventId {
			r.manual[userId] = append(r.manual[userId][:i], r.manual[userId][i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

func (r *RepositoryStub) GetManualEvents(ctx context.Context, userId int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	result := make([]Event, len(r.manual[userId]))
	copy(result, r.manual[userId])
	return result, nil
}

func (r *RepositoryStub) SetCompletion(ctx context.Context, userId int, eventId string, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if r.completions[userId] == nil {
		r.completions[userId] = make(map[string]bool)
	}
	r.completions[userId][eventId] = completed
	return nil
}

func (r *RepositoryStub) GetCompletions(ctx context.Context, userId int) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	result := make(map[string]bool, len(r.completions[userId]))
	for k, v := range r.completions[userId] {
		result[k] = v
	}
	return result, nil
}

// SetError makes every stub method fail with err.
func (r *RepositoryStub) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Reset clears all stored data.
func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manual = make(map[int][]Event)
	r.completions = make(map[int]map[string]bool)
	r.failWith = nil
}
