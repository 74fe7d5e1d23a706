package rest

// ErrorResponse is the JSON error envelope returned by every handler.
// Error carries a human-readable, actionable reason; Details is optional
// supporting context, never a stack trace.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
