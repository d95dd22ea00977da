package ingest

import "errors"

// Domain-specific errors for telemetry ingestion.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadPayload is returned when a message payload is not valid JSON.
	ErrBadPayload = errors.New("ingest: bad payload")

	// ErrMissingRobotID is returned when neither the payload nor the
	// topic identifies the reporting robot.
	ErrMissingRobotID = errors.New("ingest: missing robot id")
)
