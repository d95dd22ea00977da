package fleet

import "errors"

// Domain-specific errors for fleet state operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRobotNotFound is returned when a robot ID is not in the cache.
	ErrRobotNotFound = errors.New("fleet: robot not found")

	// ErrRosterFormat is returned when the roster file is not a JSON array
	// of robot descriptors.
	ErrRosterFormat = errors.New("fleet: roster must be a JSON array")
)
