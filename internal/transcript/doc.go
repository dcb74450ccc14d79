// Package transcript parses and validates timed speech transcripts.
//
// A transcript carries sentence spans and word spans produced by speech
// recognition. Sentence boundaries drive image display durations and the
// karaoke caption grouping; word boundaries drive per-word caption timing.
// Parse rejects documents that would make downstream timing arithmetic
// meaningless (missing fields, reversed spans, out-of-order entries) with a
// *ParseError instead of letting later stages fail on bad input.
package transcript
