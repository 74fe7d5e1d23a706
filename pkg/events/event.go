package events

import (
	"time"
)

// Category classifies what kind of deadline an event represents.
type Category string

const (
	CategoryAssignment   Category = "assignment"
	CategoryExam         Category = "exam"
	CategoryProject      Category = "project"
	CategoryAnnouncement Category = "announcement"
	CategoryPersonal     Category = "personal"
)

// Priority is derived from the category and never stored independently.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// SourceKind identifies which ingestion path produced an event.
type SourceKind string

const (
	SourceRemoteAPI      SourceKind = "remote-api"
	SourceCalendarFeed   SourceKind = "calendar-feed"
	SourceManual         SourceKind = "manual"
	SourceGoogleCalendar SourceKind = "google-calendar"
)

// Event is the canonical in-memory representation of a deadline,
// regardless of which source produced it. DueAt is always an absolute
// instant in UTC by the time an event leaves its source boundary.
type Event struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    Category          `json:"category"`
	CourseLabel string            `json:"courseLabel,omitempty"`
	CourseCode  string            `json:"courseCode,omitempty"`
	DueAt       time.Time         `json:"dueAt"`
	Completed   bool              `json:"completed"`
	Priority    Priority          `json:"priority"`
	SourceKind  SourceKind        `json:"sourceKind"`
	SourceRaw   map[string]string `json:"sourceRaw,omitempty"`
}

// CourseKey returns the identifier used for course filtering and
// course listings: the code when present, otherwise the label.
func (e Event) CourseKey() string {
	if e.CourseCode != "" {
		return e.CourseCode
	}
	return e.CourseLabel
}

// PriorityFor derives the presentation priority from a category.
func PriorityFor(c Category) Priority {
	switch c {
	case CategoryExam:
		return PriorityHigh
	case CategoryAssignment:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Course is a distinct course derived from the event list.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Filter restricts an event list. Empty course/category selections and a
// nil Completed mean "match everything" on that axis.
type Filter struct {
	Courses    []string
	Categories []Category
	Completed  *bool
}
