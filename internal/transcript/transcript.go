package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Word is a single recognized word with its time bounds in seconds.
type Word struct {
	Start float64
	End   float64
	Text  string
}

// Sentence is a recognized sentence span in seconds.
type Sentence struct {
	Start float64
	End   float64
	Text  string
}

// Transcript owns the ordered sentences and words for one narration track.
type Transcript struct {
	Sentences []Sentence
	Words     []Word
}

// TotalDuration is the end of the final sentence.
func (t *Transcript) TotalDuration() float64 {
	if t == nil || len(t.Sentences) == 0 {
		return 0
	}
	return t.Sentences[len(t.Sentences)-1].End
}

// Contains reports whether the word lies fully inside the sentence span.
func (s Sentence) Contains(w Word) bool {
	return w.Start >= s.Start && w.End <= s.End
}

// WordsIn returns the words fully contained in the sentence, in order.
func (t *Transcript) WordsIn(s Sentence) []Word {
	if t == nil {
		return nil
	}
	var out []Word
	for _, w := range t.Words {
		if s.Contains(w) {
			out = append(out, w)
		}
	}
	return out
}

// Orphans counts words that no sentence fully contains.
func (t *Transcript) Orphans() int {
	if t == nil {
		return 0
	}
	count := 0
	for _, w := range t.Words {
		contained := false
		for _, s := range t.Sentences {
			if s.Contains(w) {
				contained = true
				break
			}
		}
		if !contained {
			count++
		}
	}
	return count
}

type rawSpan struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  *string  `json:"text"`
	Word  *string  `json:"word"`
}

type rawTranscript struct {
	Sentences *[]rawSpan `json:"sentences"`
	Words     *[]rawSpan `json:"words"`
}

// Load reads and parses a transcript document from disk.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Kind: Malformed, Field: path, Err: fmt.Errorf("read transcript: %w", err)}
	}
	return Parse(data)
}

// Parse decodes a transcript document of the form
// {"sentences":[{start,end,text}], "words":[{start,end,word}]} and validates it.
func Parse(raw []byte) (*Transcript, error) {
	var doc rawTranscript
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Kind: Malformed, Err: err}
	}
	if doc.Sentences == nil {
		return nil, &ParseError{Kind: MissingField, Field: "sentences"}
	}

	t := &Transcript{
		Sentences: make([]Sentence, 0, len(*doc.Sentences)),
	}
	for i, span := range *doc.Sentences {
		field := fmt.Sprintf("sentences[%d]", i)
		start, end, err := spanBounds(field, span)
		if err != nil {
			return nil, err
		}
		if span.Text == nil {
			return nil, &ParseError{Kind: MissingField, Field: field + ".text"}
		}
		t.Sentences = append(t.Sentences, Sentence{Start: start, End: end, Text: strings.TrimSpace(*span.Text)})
	}

	if doc.Words != nil {
		t.Words = make([]Word, 0, len(*doc.Words))
		for i, span := range *doc.Words {
			field := fmt.Sprintf("words[%d]", i)
			start, end, err := spanBounds(field, span)
			if err != nil {
				return nil, err
			}
			if span.Word == nil {
				return nil, &ParseError{Kind: MissingField, Field: field + ".word"}
			}
			t.Words = append(t.Words, Word{Start: start, End: end, Text: strings.TrimSpace(*span.Word)})
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func spanBounds(field string, span rawSpan) (float64, float64, error) {
	if span.Start == nil {
		return 0, 0, &ParseError{Kind: MissingField, Field: field + ".start"}
	}
	if span.End == nil {
		return 0, 0, &ParseError{Kind: MissingField, Field: field + ".end"}
	}
	return *span.Start, *span.End, nil
}

// Validate checks the aggregate invariants: at least one sentence, every span
// non-negative with start <= end, and both sequences non-decreasing by start.
// Sentence ends must strictly increase from zero so every image segment has
// a positive duration. Words outside sentence bounds are allowed.
func (t *Transcript) Validate() error {
	if t == nil || len(t.Sentences) == 0 {
		return &ParseError{Kind: Malformed, Field: "sentences", Err: errEmptySentences}
	}
	prev, prevEnd := 0.0, 0.0
	for i, s := range t.Sentences {
		field := fmt.Sprintf("sentences[%d]", i)
		if err := checkSpan(field, s.Start, s.End, prev); err != nil {
			return err
		}
		if s.End <= prevEnd {
			return &ParseError{Kind: Malformed, Field: field + ".end", Err: fmt.Errorf("end %g does not advance past previous end %g", s.End, prevEnd)}
		}
		prev, prevEnd = s.Start, s.End
	}
	prev = 0
	for i, w := range t.Words {
		if err := checkSpan(fmt.Sprintf("words[%d]", i), w.Start, w.End, prev); err != nil {
			return err
		}
		prev = w.Start
	}
	return nil
}

func checkSpan(field string, start, end, prevStart float64) error {
	switch {
	case start < 0 || end < 0:
		return &ParseError{Kind: Malformed, Field: field, Err: fmt.Errorf("negative time (start=%g end=%g)", start, end)}
	case start > end:
		return &ParseError{Kind: Malformed, Field: field, Err: fmt.Errorf("start %g after end %g", start, end)}
	case start < prevStart:
		return &ParseError{Kind: Malformed, Field: field, Err: fmt.Errorf("start %g precedes previous start %g", start, prevStart)}
	}
	return nil
}
