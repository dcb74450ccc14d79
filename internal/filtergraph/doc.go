// Package filtergraph describes ffmpeg filter_complex graphs as data.
//
// A Graph is an ordered list of stages. Each stage reads labelled pads, runs a
// chain of filters, and writes labelled pads. Build assembles the slideshow
// graph (per-image framing and trimming, concatenation, audio formatting and
// mixing, caption burn-in) with index-derived labels; Validate checks that
// every label is produced once and consumed once; String is the only
// serializer, so the text handed to ffmpeg is always derived from the
// validated structure.
package filtergraph
