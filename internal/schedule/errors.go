package schedule

import "errors"

// Domain-specific errors for task planning and storage.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTaskNotFound is returned when a task id has no record.
	ErrTaskNotFound = errors.New("schedule: task not found")

	// ErrEmptyInstruction is returned when a plan is requested for a
	// blank instruction.
	ErrEmptyInstruction = errors.New("schedule: instruction required")
)
