// Package daemon coordinates the long-running matchreel process.
//
// It wires the recording watcher, the sequential worker and the status API
// into a single lifecycle, with flock-based locking to prevent two daemons
// from uploading the same folder. Stop waits for the run in progress to reach
// a terminal state before releasing the lock.
//
// Keep orchestration here: stage logic lives in internal/pipeline.
package daemon
