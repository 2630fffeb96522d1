// Package history persists batch runs and per-file outcomes in SQLite.
//
// Store implements batch.Recorder so the run orchestrator can log every run
// as it happens; the CLI reads the same tables back for `murmur history`.
// The database uses modernc.org/sqlite (pure Go) in WAL mode.
package history
