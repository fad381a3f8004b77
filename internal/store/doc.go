// Package store persists users, tasks and notifications in SQLite using the
// pure Go modernc.org/sqlite driver.
//
// Open applies an embedded, idempotent schema, so a fresh file is usable
// right away. Timestamps are stored as fixed-width UTC text. Every method
// runs inside a "store.<operation>" span and is counted in the store
// metrics when a *instrumentation.Metrics is configured.
package store
