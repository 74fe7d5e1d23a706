package events

import (
	"sort"
	"strings"
	"time"
)

// DiscrepancyKind identifies how two event collections disagree.
type DiscrepancyKind string

const (
	MissingInReference DiscrepancyKind = "missing-in-reference"
	MissingInSubject   DiscrepancyKind = "missing-in-subject"
	TimeMismatch       DiscrepancyKind = "time-mismatch"
)

// Discrepancy is a single detected disagreement between a subject and a
// reference event collection. It is recomputed on demand and never persisted.
type Discrepancy struct {
	Kind           DiscrepancyKind `json:"kind"`
	Title          string          `json:"title"`
	SubjectDueAt   *time.Time      `json:"subjectDueAt,omitempty"`
	ReferenceDueAt *time.Time      `json:"referenceDueAt,omitempty"`
}

// timeMismatchThreshold is how far two due times for the same title may
// drift apart before they are reported as a mismatch.
const timeMismatchThreshold = 10 * time.Minute

// Merge concatenates event sequences from independent sources.
// No deduplication happens across sources: the same logical item may
// legitimately appear from two feeds and both are shown.
func Merge(sources ...[]Event) []Event {
	total := 0
	for _, s := range sources {
		total += len(s)
	}
	merged := make([]Event, 0, total)
	for _, s := range sources {
		merged = append(merged, s...)
	}
	return merged
}

// FilterEvents returns the events surviving the filter. The three axes are
// AND-combined; within one axis membership is OR-combined, so an empty
// selection matches everything on that axis.
func FilterEvents(evs []Event, f Filter) []Event {
	out := make([]Event, 0, len(evs))
	for _, e := range evs {
		if !matchesCourse(e, f.Courses) {
			continue
		}
		if !matchesCategory(e, f.Categories) {
			continue
		}
		if f.Completed != nil && e.Completed != *f.Completed {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesCourse(e Event, courses []string) bool {
	if len(courses) == 0 {
		return true
	}
	key := e.CourseKey()
	for _, c := range courses {
		if c == key {
			return true
		}
	}
	return false
}

func matchesCategory(e Event, categories []Category) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if c == e.Category {
			return true
		}
	}
	return false
}

// ComputeDiscrepancies compares a subject event collection against a
// reference collection, matching events by case-insensitive exact title.
// A subject event without a reference counterpart yields MissingInReference,
// a reference event without a subject counterpart yields MissingInSubject,
// and a shared title whose due times differ by more than ten minutes yields
// TimeMismatch carrying both instants. The result is sorted by title.
func ComputeDiscrepancies(subject, reference []Event) []Discrepancy {
	refByTitle := make(map[string]Event, len(reference))
	for _, r := range reference {
		key := strings.ToLower(r.Title)
		if _, ok := refByTitle[key]; !ok {
			refByTitle[key] = r
		}
	}

	subjectTitles := make(map[string]struct{}, len(subject))
	records := make([]Discrepancy, 0)

	for _, s := range subject {
		key := strings.ToLower(s.Title)
		subjectTitles[key] = struct{}{}

		ref, ok := refByTitle[key]
		if !ok {
			due := s.DueAt
			records = append(records, Discrepancy{
				Kind:         MissingInReference,
				Title:        s.Title,
				SubjectDueAt: &due,
			})
			continue
		}

		diff := s.DueAt.Sub(ref.DueAt)
		if diff < 0 {
			diff = -diff
		}
		if diff > timeMismatchThreshold {
			subjectDue, refDue := s.DueAt, ref.DueAt
			records = append(records, Discrepancy{
				Kind:           TimeMismatch,
				Title:          s.Title,
				SubjectDueAt:   &subjectDue,
				ReferenceDueAt: &refDue,
			})
		}
	}

	for _, r := range reference {
		if _, ok := subjectTitles[strings.ToLower(r.Title)]; ok {
			continue
		}
		due := r.DueAt
		records = append(records, Discrepancy{
			Kind:           MissingInSubject,
			Title:          r.Title,
			ReferenceDueAt: &due,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Title < records[j].Title
	})
	return records
}

// UpcomingSorted returns up to limit events strictly after now, soonest first.
func UpcomingSorted(evs []Event, now time.Time, limit int) []Event {
	upcoming := make([]Event, 0, len(evs))
	for _, e := range evs {
		if e.DueAt.After(now) {
			upcoming = append(upcoming, e)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueAt.Before(upcoming[j].DueAt)
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// CoursesOf derives the distinct courses present in an event list, in
// first-seen order. Events without any course identifier are skipped.
func CoursesOf(evs []Event) []Course {
	seen := make(map[string]struct{})
	courses := make([]Course, 0)
	for _, e := range evs {
		key := e.CourseKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		name := e.CourseLabel
		if name == "" {
			name = key
		}
		courses = append(courses, Course{ID: key, Name: name, Code: key})
	}
	return courses
}
