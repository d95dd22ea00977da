// Package database provides SQLite connectivity for the task store.
//
// It wraps database/sql with WAL-mode pragmas tuned for an embedded
// single-writer deployment, and applies embedded SQL migrations at
// startup. The live robot cache never touches the database; only task
// and plan records are persisted.
package database
