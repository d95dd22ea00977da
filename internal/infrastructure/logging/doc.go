// Package logging provides structured logging for Fleet Core.
//
// It wraps the standard library's log/slog with configuration-driven
// setup (level, format, destination) and stamps every record with the
// service name and build version. Components receive a child logger via
// With("component", name) so log lines are attributable without each
// call site repeating the field.
package logging
