package poll

import "errors"

// Domain-specific errors for HTTP polling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadStatusCode is returned when a target answers outside the 2xx range.
	ErrBadStatusCode = errors.New("poll: unexpected http status")

	// ErrInvalidJSON is returned when a target's body is not valid JSON.
	ErrInvalidJSON = errors.New("poll: invalid json body")
)
