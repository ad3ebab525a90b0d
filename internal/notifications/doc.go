// Package notifications posts terminal run outcomes to the operator's webhook
// (typically an n8n workflow).
//
// NewService inspects configuration and returns a webhook-backed Service when
// a URL is set, or a no-op implementation otherwise, so callers never need to
// branch on whether notifications are enabled. Callers treat delivery as best
// effort: errors are for logging, never for control flow.
package notifications
