// Package history keeps an append-only SQLite log of finished pipeline runs.
//
// The log is for operators: the CLI history command and the daemon status API
// read it. Nothing reads it back to resume or retry work, and a run that is
// still in flight never appears here.
package history
