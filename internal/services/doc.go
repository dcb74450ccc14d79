// Package services defines shared utilities consumed by the composition
// pipeline, the HTTP API, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures from every
//     stage can be classified the same way (input problems vs runtime
//     problems) by the job store and the API.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
