// Package api defines the JSON payloads exchanged over the reelforge HTTP
// API and the conversions from internal job and workflow types.
//
// The daemon serves these payloads; the CLI uses the same conversions when
// printing jobs with --json.
package api
