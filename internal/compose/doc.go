// Package compose turns a job folder into a finished vertical video.
//
// It ties the planner together: the transcript is parsed, images are
// sequenced against sentences, music is resolved, captions are derived and
// written into a per-job workspace, and the filter graph is built. The
// resulting Plan is an immutable ffmpeg argument list that a Runner executes.
// Output is rendered inside the workspace and moved into place only after
// the compositor succeeds, so a failed job never leaves a partial video.
package compose
