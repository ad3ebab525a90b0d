// Package config loads, normalizes, and validates matchreel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENDOTA_API_KEY and the YOUTUBE_* credentials. The Config type centralizes
// every knob the daemon and CLI need, so the watched folder, the match window,
// and external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extensions, and clear validation errors.
package config
