package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic EventType = "test.topic"

func TestEventBus_PublishSubscribe(t *testing.T) {
	t.Run("should deliver to subscribers in order", func(t *testing.T) {
		bus := NewEventBus()
		var order []int
		bus.Subscribe(testTopic, func(e Event) error {
			order = append(order, 1)
			return nil
		})
		bus.Subscribe(testTopic, func(e Event) error {
			order = append(order, 2)
			return nil
		})

		err := bus.Publish(NewEvent(context.Background(), testTopic, "payload"))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("should carry the payload and context", func(t *testing.T) {
		bus := NewEventBus()
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "value")

		var got Event
		bus.Subscribe(testTopic, func(e Event) error {
			got = e
			return nil
		})

		require.NoError(t, bus.Publish(NewEvent(ctx, testTopic, 42)))
		assert.Equal(t, 42, got.Data)
		assert.Equal(t, "value", got.Context().Value(key{}))
	})

	t.Run("should not deliver to other topics", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe("other.topic", func(e Event) error {
			called = true
			return nil
		})

		require.NoError(t, bus.Publish(NewEvent(context.Background(), testTopic, nil)))
		assert.False(t, called)
	})

	t.Run("should stop delivering after unsubscribe", func(t *testing.T) {
		bus := NewEventBus()
		calls := 0
		unsubscribe := bus.Subscribe(testTopic, func(e Event) error {
			calls++
			return nil
		})

		require.NoError(t, bus.Publish(NewEvent(context.Background(), testTopic, nil)))
		unsubscribe()
		require.NoError(t, bus.Publish(NewEvent(context.Background(), testTopic, nil)))

		assert.Equal(t, 1, calls)
	})
}

func TestEventBus_Failures(t *testing.T) {
	t.Run("should keep delivering past a failing handler and report it", func(t *testing.T) {
		bus := NewEventBus()
		bus.Subscribe(testTopic, func(e Event) error {
			return errors.New("boom")
		})
		delivered := false
		bus.Subscribe(testTopic, func(e Event) error {
			delivered = true
			return nil
		})

		err := bus.Publish(NewEvent(context.Background(), testTopic, nil))

		assert.Error(t, err)
		assert.True(t, delivered)
	})

	t.Run("should recover a panicking handler", func(t *testing.T) {
		bus := NewEventBus()
		bus.Subscribe(testTopic, func(e Event) error {
			panic("handler bug")
		})

		err := bus.Publish(NewEvent(context.Background(), testTopic, nil))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("should refuse to publish on a cancelled context", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe(testTopic, func(e Event) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, testTopic, nil))

		assert.Error(t, err)
		assert.False(t, called)
	})
}
