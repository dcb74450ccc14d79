// Package logs reads per-job and daemon log files for the CLI and the HTTP
// API.
//
// Tail returns the last N lines or everything after a byte offset, and can
// wait briefly for new lines so callers can poll in follow mode. ParseEntry
// decodes the JSON lines written by the job loggers into a compact form for
// display.
package logs
