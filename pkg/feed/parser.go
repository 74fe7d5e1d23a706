package feed

import (
	"errors"
	"strings"
	"time"

	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/events"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MaxFeedSize caps any ingested feed, regardless of whether it arrived as a
// file, a URL response, or pasted text.
const MaxFeedSize = 2 * 1024 * 1024

var (
	ErrEmptyFeed = errors.New("feed text is empty")
	ErrTooLarge  = errors.New("feed exceeds the 2 MiB size limit")
)

// ParseFeed turns raw ICS text into normalized events. Individual malformed
// VEVENT blocks are recovered with documented defaults and never abort the
// whole parse; only an empty or oversized input is rejected outright.
// Events are returned in the order their VEVENT blocks appear.
func ParseFeed(text string, clock utils.Clock) ([]events.Event, error) {
	if len(text) == 0 {
		return nil, ErrEmptyFeed
	}
	if len(text) > MaxFeedSize {
		return nil, ErrTooLarge
	}

	lines := UnfoldLines(text)
	tzTable := BuildTimezoneTable(lines)

	parsed := make([]events.Event, 0)
	inEvent := false
	var props map[string]string // bare key -> value
	var heads map[string]string // bare key -> parameter-qualified key

	for _, l := range lines {
		switch l {
		case "BEGIN:VEVENT":
			inEvent = true
			props = make(map[string]string)
			heads = make(map[string]string)
			continue
		case "END:VEVENT":
			if inEvent {
				parsed = append(parsed, buildEvent(props, heads, tzTable, clock))
			}
			inEvent = false
			continue
		}
		if !inEvent {
			continue
		}

		idx := strings.Index(l, ":")
		if idx < 0 {
			continue
		}
		head := l[:idx]
		bareKey := head
		if semi := strings.Index(head, ";"); semi >= 0 {
			bareKey = head[:semi]
		}
		props[bareKey] = l[idx+1:]
		heads[bareKey] = head
	}

	return parsed, nil
}

func buildEvent(props, heads map[string]string, tzTable map[string]int, clock utils.Clock) events.Event {
	title := props["SUMMARY"]
	startVal := props["DTSTART"]
	if title == "" || startVal == "" {
		log.Warnf("feed event is missing required fields (SUMMARY=%q, DTSTART=%q), recovering with defaults", title, startVal)
	}
	if title == "" {
		title = "Event"
	}

	dueAt := clock.Now().UTC()
	if startVal != "" {
		dueAt = resolveTimestamp(startVal, heads["DTSTART"], tzTable, clock)
	}

	courseCode := ExtractCourseFromSummary(title)
	if courseCode == "" {
		courseCode = parenthesizedCode(title)
	}

	category := ClassifyTitle(title)

	description := props["DESCRIPTION"]
	if description == "" {
		description = props["LOCATION"]
	}

	raw := make(map[string]string, len(props))
	for k, v := range props {
		raw[k] = v
	}

	return events.Event{
		ID:          "ics-" + uuid.NewString(),
		Title:       title,
		Description: description,
		Category:    category,
		CourseLabel: courseCode,
		CourseCode:  courseCode,
		DueAt:       dueAt,
		Completed:   false,
		Priority:    events.PriorityFor(category),
		SourceKind:  events.SourceCalendarFeed,
		SourceRaw:   raw,
	}
}

// resolveTimestamp turns a DTSTART value into an absolute UTC instant.
// Precedence: VALUE=DATE literal at midnight UTC, then a trailing-Z UTC
// time, then a TZID known to the feed's timezone table, then a floating
// time in the process's local zone. Anything unparsable falls back to the
// parse moment rather than failing the event.
func resolveTimestamp(value, head string, tzTable map[string]int, clock utils.Clock) time.Time {
	v := strings.TrimSpace(value)

	if strings.Contains(head, "VALUE=DATE") {
		if t, ok := parseDateLiteral(v); ok {
			return t
		}
		log.Warnf("feed event has unparsable date value %q, falling back to now", v)
		return clock.Now().UTC()
	}

	isUTC := strings.HasSuffix(v, "Z")
	t, ok := parseDateTimeDigits(strings.TrimSuffix(v, "Z"))
	if !ok {
		log.Warnf("feed event has unparsable time value %q, falling back to now", v)
		return clock.Now().UTC()
	}

	if isUTC {
		return t
	}

	if tzid := tzidParam(head); tzid != "" {
		if offsetMin, known := tzTable[tzid]; known {
			return t.Add(-time.Duration(offsetMin) * time.Minute)
		}
	}

	// Floating time: reinterpret the wall-clock digits in the local zone.
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
	return local.UTC()
}

func parseDateLiteral(v string) (time.Time, bool) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	// Date-time forms are acceptable too; only the calendar date counts.
	if t, ok := parseDateTimeDigits(strings.TrimSuffix(v, "Z")); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseDateTimeDigits parses compact and dashed ICS date-time literals as
// bare wall-clock digits (zone handling is the caller's concern).
func parseDateTimeDigits(v string) (time.Time, bool) {
	layouts := []string{
		"20060102T150405",
		"20060102T1504",
		"20060102",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func tzidParam(head string) string {
	for _, part := range strings.Split(head, ";") {
		if strings.HasPrefix(part, "TZID=") {
			return part[len("TZID="):]
		}
	}
	return ""
}

// ExtractCourseFromSummary recovers a course identifier from the first
// top-level bracketed span of a title, using a bracket-balance scan. Nested
// brackets are flattened out of the captured text ("[Course [Advanced]]"
// yields "Course Advanced"); an unterminated span yields the empty string.
// It never fails on malformed input.
func ExtractCourseFromSummary(summary string) string {
	depth := 0
	start := -1
	for i, ch := range summary {
		switch ch {
		case '[':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				raw := summary[start:i]
				cleaned := strings.NewReplacer("[", "", "]", "").Replace(raw)
				return strings.TrimSpace(cleaned)
			}
		}
	}
	return ""
}

// parenthesizedCode is the secondary course hint: the first parenthesized
// span of a title, e.g. "Midterm (CS101)".
func parenthesizedCode(title string) string {
	open := strings.Index(title, "(")
	if open < 0 {
		return ""
	}
	end := strings.Index(title[open+1:], ")")
	if end < 0 {
		return ""
	}
	return title[open+1 : open+1+end]
}

// ClassifyTitle buckets an event by keyword. The keyword set is
// deliberately coarse: quiz/exam mean an exam, everything else is treated
// as an assignment.
func ClassifyTitle(title string) events.Category {
	lower := strings.ToLower(title)
	for _, kw := range []string{"quiz", "exam"} {
		if strings.Contains(lower, kw) {
			return events.CategoryExam
		}
	}
	return events.CategoryAssignment
}
