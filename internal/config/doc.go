// Package config loads, normalizes, and validates reelforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOOGLE_APPLICATION_CREDENTIALS and REELFORGE_GCS_BUCKET. The Config type
// centralizes every knob the CLI and server need: job folder locations, the
// compositor encode profile, caption styling, the music catalog, blob upload,
// and worker limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical names, and clear validation errors.
package config
