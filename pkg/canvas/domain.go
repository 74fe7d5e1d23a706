package canvas

import (
	"time"

	"github.com/dueview/dueview/pkg/vault"
)

// Profile is the authenticated user's Canvas profile, fetched as the
// connectivity probe.
type Profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Course is one active enrollment.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

// Assignment is one gradable item of a course.
type Assignment struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	DueAt          *time.Time `json:"due_at"`
	LockAt         *time.Time `json:"lock_at"`
	UnlockAt       *time.Time `json:"unlock_at"`
	PointsPossible float64    `json:"points_possible"`
	HTMLURL        string     `json:"html_url"`
}

// Connection is the persisted link between a user and a Canvas instance.
// The token is only stored in encrypted form; the passphrase needed to
// open it is supplied by the caller on every sync.
type Connection struct {
	Domain     string
	Credential vault.Credential
	LocalOnly  bool
}

// Status is the result of a connectivity diagnostic. It is a value, not an
// error: diagnostics report, they do not steer control flow.
type Status struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
