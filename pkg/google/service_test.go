package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/dueview/dueview/pkg/events"
)

func TestGoogleEventToEvent(t *testing.T) {
	now := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	t.Run("should map a timed event", func(t *testing.T) {
		item := &gcal.Event{
			Id:          "abc123",
			Summary:     "[CS305] Homework 4",
			Description: "Chapters 6-7",
			HtmlLink:    "https://calendar.google.com/event?eid=abc123",
			Start:       &gcal.EventDateTime{DateTime: "2025-12-01T14:00:00-05:00"},
		}

		event, ok := googleEventToEvent(item, now)

		require.True(t, ok)
		assert.Equal(t, "gcal-abc123", event.ID)
		assert.Equal(t, "[CS305] Homework 4", event.Title)
		assert.Equal(t, "Chapters 6-7", event.Description)
		assert.Equal(t, "CS305", event.CourseLabel)
		assert.Equal(t, events.CategoryAssignment, event.Category)
		assert.Equal(t, events.PriorityMedium, event.Priority)
		assert.Equal(t, events.SourceGoogleCalendar, event.SourceKind)
		assert.Equal(t, time.Date(2025, 12, 1, 19, 0, 0, 0, time.UTC), event.DueAt)
	})

	t.Run("should pin an all-day event to midnight UTC", func(t *testing.T) {
		item := &gcal.Event{
			Id:      "allday",
			Summary: "Final Exam",
			Start:   &gcal.EventDateTime{Date: "2025-12-15"},
		}

		event, ok := googleEventToEvent(item, now)

		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), event.DueAt)
		assert.Equal(t, events.CategoryExam, event.Category)
		assert.Equal(t, events.PriorityHigh, event.Priority)
	})

	t.Run("should default a missing summary", func(t *testing.T) {
		item := &gcal.Event{
			Id:    "untitled",
			Start: &gcal.EventDateTime{Date: "2025-12-15"},
		}

		event, ok := googleEventToEvent(item, now)

		require.True(t, ok)
		assert.Equal(t, "Event", event.Title)
	})

	t.Run("should drop events without start information", func(t *testing.T) {
		_, ok := googleEventToEvent(&gcal.Event{Id: "no-start"}, now)
		assert.False(t, ok)

		_, ok = googleEventToEvent(&gcal.Event{Id: "empty-start", Start: &gcal.EventDateTime{}}, now)
		assert.False(t, ok)
	})

	t.Run("should substitute the current time for an unparsable start", func(t *testing.T) {
		item := &gcal.Event{
			Id:      "bad-time",
			Summary: "Quiz 2",
			Start:   &gcal.EventDateTime{DateTime: "not-a-timestamp"},
		}

		event, ok := googleEventToEvent(item, now)

		require.True(t, ok)
		assert.Equal(t, now, event.DueAt)
	})
}
