// Package pipeline drives a single recording from "file appeared" to
// "terminal notification sent".
//
// A run walks stabilizing, resolving, enriching, uploading and notifying in
// order. The first stage error moves the run to failed; the notification is
// still sent exactly once with whatever context the earlier stages gathered,
// and the run is appended to the history log. Nothing is retried.
//
// Once a file has stabilized the run is detached from caller cancellation so
// a shutdown never strands a half-uploaded recording. Cancelling while the
// file is still stabilizing aborts the run quietly.
package pipeline
