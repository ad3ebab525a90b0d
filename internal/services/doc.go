// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and API
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from any
//     stage classify consistently in run history, metrics, and notifications.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
