package canvas

import "errors"

var (
	// ErrValidation is returned when connect input is missing a required field.
	ErrValidation = errors.New("domain, token and passphrase are required")
	// ErrAuth is returned when Canvas rejects the token.
	ErrAuth = errors.New("canvas rejected the access token")
	// ErrNetwork is returned when Canvas could not be reached at all.
	ErrNetwork = errors.New("canvas is unreachable")
	// ErrNotConnected is returned for operations that need a stored connection.
	ErrNotConnected = errors.New("no canvas connection configured")
)
