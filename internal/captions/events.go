package captions

import (
	"strings"

	"reelforge/internal/transcript"
)

// Tone is the styling applied to one run of caption text.
type Tone int

const (
	Plain Tone = iota
	Highlight
	Dim
)

// Layer separates the two overlays emitted per word in the flash style.
type Layer int

const (
	LayerBase Layer = iota
	LayerHighlight
)

// Run is a contiguous piece of caption text sharing one tone.
type Run struct {
	Text string
	Tone Tone
}

// Event is one caption shown on [Start, End).
type Event struct {
	Start float64
	End   float64
	Layer Layer
	Runs  []Run
}

// Text joins the event's runs with single spaces.
func (e Event) Text() string {
	parts := make([]string, 0, len(e.Runs))
	for _, r := range e.Runs {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, " ")
}

// DefaultChunkSize is the number of words grouped into one karaoke line.
const DefaultChunkSize = 3

// Flash emits, for every word, a base event and a highlight event that share
// the word's time span. Words with empty text are skipped in every style.
func Flash(words []transcript.Word) []Event {
	events := make([]Event, 0, len(words)*2)
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		events = append(events,
			Event{Start: w.Start, End: w.End, Layer: LayerBase, Runs: []Run{{Text: w.Text, Tone: Plain}}},
			Event{Start: w.Start, End: w.End, Layer: LayerHighlight, Runs: []Run{{Text: w.Text, Tone: Highlight}}},
		)
	}
	return events
}

// PlainWords emits one neutral event per non-empty word.
func PlainWords(words []transcript.Word) []Event {
	events := make([]Event, 0, len(words))
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		events = append(events, Event{Start: w.Start, End: w.End, Runs: []Run{{Text: w.Text, Tone: Plain}}})
	}
	return events
}

// Chunk splits words into consecutive groups of at most size words.
func Chunk(words []transcript.Word, size int) [][]transcript.Word {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]transcript.Word
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, words[start:end])
	}
	return chunks
}

// Karaoke emits one event per contained, non-empty word position. Within a chunk an
// event lasts until the next word starts; the last word of a chunk holds
// until the sentence ends when the chunk closes the sentence, otherwise until
// the word itself ends.
func Karaoke(t *transcript.Transcript, chunkSize int) []Event {
	if t == nil {
		return nil
	}
	var events []Event
	for _, sentence := range t.Sentences {
		var words []transcript.Word
		for _, w := range t.WordsIn(sentence) {
			if w.Text != "" {
				words = append(words, w)
			}
		}
		chunks := Chunk(words, chunkSize)
		for ci, chunk := range chunks {
			finalChunk := ci == len(chunks)-1
			for w := range chunk {
				end := chunk[len(chunk)-1].End
				switch {
				case w < len(chunk)-1:
					end = chunk[w+1].Start
				case finalChunk:
					end = sentence.End
				}
				events = append(events, Event{
					Start: chunk[w].Start,
					End:   end,
					Runs:  karaokeRuns(chunk, w),
				})
			}
		}
	}
	return events
}

func karaokeRuns(chunk []transcript.Word, current int) []Run {
	runs := make([]Run, len(chunk))
	for i, w := range chunk {
		tone := Plain
		switch {
		case i == current:
			tone = Highlight
		case i > current:
			tone = Dim
		}
		runs[i] = Run{Text: w.Text, Tone: tone}
	}
	return runs
}
