package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/events"
)

var parserNow = time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

func parserClock() *utils.MockClock {
	return &utils.MockClock{FixedNow: parserNow}
}

func feedWith(blocks ...string) string {
	return "BEGIN:VCALENDAR\n" + strings.Join(blocks, "\n") + "\nEND:VCALENDAR"
}

func TestParseFeed(t *testing.T) {
	t.Run("should reject empty input", func(t *testing.T) {
		_, err := ParseFeed("", parserClock())
		assert.ErrorIs(t, err, ErrEmptyFeed)
	})

	t.Run("should reject oversized input", func(t *testing.T) {
		_, err := ParseFeed(strings.Repeat("X", MaxFeedSize+1), parserClock())
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("should parse a plain UTC event", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:[CS101] Homework 2
DTSTART:20251201T235900Z
DESCRIPTION:Chapters 4-5
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		event := parsed[0]
		assert.True(t, strings.HasPrefix(event.ID, "ics-"))
		assert.Equal(t, "[CS101] Homework 2", event.Title)
		assert.Equal(t, "Chapters 4-5", event.Description)
		assert.Equal(t, "CS101", event.CourseCode)
		assert.Equal(t, events.CategoryAssignment, event.Category)
		assert.Equal(t, events.PriorityMedium, event.Priority)
		assert.Equal(t, events.SourceCalendarFeed, event.SourceKind)
		assert.Equal(t, time.Date(2025, 12, 1, 23, 59, 0, 0, time.UTC), event.DueAt)
	})

	t.Run("should shift a TZID-qualified time by the feed's own offset", func(t *testing.T) {
		text := feedWith(`BEGIN:VTIMEZONE
TZID:America/New_York
TZOFFSETTO:-0500
END:VTIMEZONE
BEGIN:VEVENT
SUMMARY:Midterm Exam
DTSTART;TZID=America/New_York:20251201T140000
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		// 14:00 at UTC-5 is 19:00 UTC
		assert.Equal(t, time.Date(2025, 12, 1, 19, 0, 0, 0, time.UTC), parsed[0].DueAt)
	})

	t.Run("should pin a date-valued start to midnight UTC", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Final Exam
DTSTART;VALUE=DATE:20251115
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), parsed[0].DueAt)
	})

	t.Run("should treat an unknown TZID as floating local time", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Homework
DTSTART;TZID=Mars/Olympus:20251201T140000
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		expected := time.Date(2025, 12, 1, 14, 0, 0, 0, time.Local).UTC()
		assert.Equal(t, expected, parsed[0].DueAt)
	})

	t.Run("should fall back to the parse moment for an unparsable start", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Homework
DTSTART:tomorrow-ish
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, parserNow, parsed[0].DueAt)
	})

	t.Run("should recover missing summary and start with defaults", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
LOCATION:Room 204
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, "Event", parsed[0].Title)
		assert.Equal(t, parserNow, parsed[0].DueAt)
		assert.Equal(t, "Room 204", parsed[0].Description)
	})

	t.Run("should classify quiz and exam titles with high priority", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Pop Quiz 3
DTSTART:20251201T120000Z
END:VEVENT`, `BEGIN:VEVENT
SUMMARY:FINAL EXAM
DTSTART:20251210T120000Z
END:VEVENT`, `BEGIN:VEVENT
SUMMARY:Reading response
DTSTART:20251205T120000Z
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 3)
		assert.Equal(t, events.CategoryExam, parsed[0].Category)
		assert.Equal(t, events.PriorityHigh, parsed[0].Priority)
		assert.Equal(t, events.CategoryExam, parsed[1].Category)
		assert.Equal(t, events.CategoryAssignment, parsed[2].Category)
		assert.Equal(t, events.PriorityMedium, parsed[2].Priority)
	})

	t.Run("should keep going past property lines without a colon", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Homework
GARBAGE LINE WITHOUT COLON
DTSTART:20251201T120000Z
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, "Homework", parsed[0].Title)
	})

	t.Run("should retain all raw properties on the event", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Homework
DTSTART:20251201T120000Z
UID:abc@example.edu
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, "abc@example.edu", parsed[0].SourceRaw["UID"])
	})

	t.Run("should preserve block order", func(t *testing.T) {
		text := feedWith(`BEGIN:VEVENT
SUMMARY:Second due
DTSTART:20251210T120000Z
END:VEVENT`, `BEGIN:VEVENT
SUMMARY:First due
DTSTART:20251201T120000Z
END:VEVENT`)

		parsed, err := ParseFeed(text, parserClock())

		require.NoError(t, err)
		require.Len(t, parsed, 2)
		assert.Equal(t, "Second due", parsed[0].Title)
		assert.Equal(t, "First due", parsed[1].Title)
	})
}

func TestExtractCourseFromSummary(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    string
	}{
		{"simple bracket", "[CS101] Midterm", "CS101"},
		{"nested brackets flatten", "[Course [Advanced]] Exam", "Course Advanced"},
		{"unterminated bracket", "[Malformed Midterm", ""},
		{"no brackets", "Midterm Exam", ""},
		{"stray closing bracket", "] Midterm [CS200] later", "CS200"},
		{"whitespace trimmed", "[ CS101 ] Midterm", "CS101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCourseFromSummary(tt.summary))
		})
	}
}

func TestParenthesizedCode(t *testing.T) {
	assert.Equal(t, "CS101", parenthesizedCode("Midterm (CS101)"))
	assert.Equal(t, "", parenthesizedCode("Midterm (CS101"))
	assert.Equal(t, "", parenthesizedCode("Midterm"))
}
