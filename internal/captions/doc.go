// Package captions derives caption events from a transcript and serializes
// them as subtitle tracks.
//
// Three styles are supported:
//   - flash: every word is shown on its own, as a base layer and a highlight
//     layer sharing the word's exact time span. The filter graph burns these
//     in with drawtext, so the text escaping rules live here too.
//   - karaoke: words are grouped per sentence into chunks of three and each
//     word position gets its own event with a rolling highlight (earlier
//     words neutral, current word highlighted, later words dimmed). Words that
//     do not fit entirely inside a sentence are left out of this track.
//   - plain: one neutral event per word.
//
// Tracks encode to SRT (HH:MM:SS,mmm) or ASS (H:MM:SS.CC with inline colour
// overrides). Both encodings are byte-stable for identical input.
package captions
