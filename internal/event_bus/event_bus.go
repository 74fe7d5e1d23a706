// Package event_bus is a small synchronous in-process dispatcher. Sources
// publish on it after replacing their cached batches so interested parties
// (and tests) can observe data changes without coupling to the sources.
package event_bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType identifies a topic on the bus.
type EventType string

// Event is the envelope delivered to subscribers.
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{ctx: ctx, Type: eventType, Timestamp: time.Now(), Data: data}
}

// Context returns the context the event was published under, so handlers
// can honor cancellation and read request-scoped values such as the user.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type handler func(Event) error

// EventBus dispatches events to subscribers synchronously, in subscription
// order. It is safe for concurrent use.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	nextID      uint64
}

type subscription struct {
	id uint64
	h  handler
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[EventType][]subscription)}
}

// Subscribe registers h for eventType and returns a function that removes
// the subscription again.
func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	eb.nextID++
	id := eb.nextID
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscription{id: id, h: h})
	eb.mu.Unlock()

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		subs := eb.subscribers[eventType]
		for i, s := range subs {
			if s.id == id {
				eb.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every subscriber of its type. Handler
// errors and panics are collected, logged, and reported together; they do
// not stop delivery to the remaining handlers. A cancelled event context
// stops delivery early.
func (eb *EventBus) Publish(e Event) error {
	if err := e.Context().Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", e.Type, err)
	}

	eb.mu.RLock()
	subs := make([]subscription, len(eb.subscribers[e.Type]))
	copy(subs, eb.subscribers[e.Type])
	eb.mu.RUnlock()

	var failures []error
	for _, sub := range subs {
		if err := e.Context().Err(); err != nil {
			failures = append(failures, fmt.Errorf("context cancelled during delivery: %w", err))
			break
		}
		if err := eb.invoke(sub, e); err != nil {
			log.Errorf("event bus: handler %d failed for %s: %v", sub.id, e.Type, err)
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %v", e.Type, len(failures), failures)
	}
	return nil
}

func (eb *EventBus) invoke(sub subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %d panicked for event %s: %v", sub.id, e.Type, r)
		}
	}()
	return sub.h(e)
}
