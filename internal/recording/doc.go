// Package recording derives facts from a recording's file name: the wall-clock
// capture start encoded by OBS, its absolute instant in the configured time
// zone, and the sibling description path written by the pipeline.
package recording
