// Package logging assembles structured slog loggers and formatting helpers used
// across reelforge.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with job IDs, stages, and correlation IDs. Per-job log files are teed
// off the main logger so a single render can be inspected in isolation. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
