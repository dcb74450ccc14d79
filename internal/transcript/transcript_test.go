package transcript_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/services"
	"reelforge/internal/transcript"
)

const sampleDoc = `{
  "sentences": [
    {"start": 0.0, "end": 2.5, "text": "Hello there."},
    {"start": 2.6, "end": 5.0, "text": "General Kenobi."}
  ],
  "words": [
    {"start": 0.0, "end": 0.6, "word": "Hello"},
    {"start": 0.7, "end": 2.4, "word": "there."},
    {"start": 2.6, "end": 3.5, "word": "General"},
    {"start": 3.6, "end": 5.2, "word": "Kenobi."}
  ]
}`

func TestParseValidDocument(t *testing.T) {
	tr, err := transcript.Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(tr.Sentences) != 2 || len(tr.Words) != 4 {
		t.Fatalf("unexpected counts: %d sentences, %d words", len(tr.Sentences), len(tr.Words))
	}
	if tr.Words[2].Text != "General" {
		t.Fatalf("unexpected word text %q", tr.Words[2].Text)
	}
	if math.Abs(tr.TotalDuration()-5.0) > 1e-9 {
		t.Fatalf("unexpected total duration %v", tr.TotalDuration())
	}
}

func TestWordsInAppliesContainment(t *testing.T) {
	tr, err := transcript.Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	first := tr.WordsIn(tr.Sentences[0])
	if len(first) != 2 {
		t.Fatalf("expected 2 words in first sentence, got %d", len(first))
	}
	// "Kenobi." ends at 5.2, past the sentence end of 5.0.
	second := tr.WordsIn(tr.Sentences[1])
	if len(second) != 1 || second[0].Text != "General" {
		t.Fatalf("unexpected second sentence words: %+v", second)
	}
	if got := tr.Orphans(); got != 1 {
		t.Fatalf("expected 1 orphaned word, got %d", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		kind  transcript.ParseErrorKind
		field string
	}{
		{"invalid json", `{"sentences": [`, transcript.Malformed, ""},
		{"missing sentences", `{"words": []}`, transcript.MissingField, "sentences"},
		{"empty sentences", `{"sentences": [], "words": []}`, transcript.Malformed, "sentences"},
		{"missing end", `{"sentences": [{"start": 0, "text": "a"}]}`, transcript.MissingField, "sentences[0].end"},
		{"missing text", `{"sentences": [{"start": 0, "end": 1}]}`, transcript.MissingField, "sentences[0].text"},
		{"missing word text", `{"sentences": [{"start": 0, "end": 1, "text": "a"}], "words": [{"start": 0, "end": 1}]}`, transcript.MissingField, "words[0].word"},
		{"reversed sentence", `{"sentences": [{"start": 2, "end": 1, "text": "a"}]}`, transcript.Malformed, "sentences[0]"},
		{"unordered sentences", `{"sentences": [{"start": 2, "end": 3, "text": "a"}, {"start": 1, "end": 4, "text": "b"}]}`, transcript.Malformed, "sentences[1]"},
		{"zero length opening sentence", `{"sentences": [{"start": 0, "end": 0, "text": "a"}]}`, transcript.Malformed, "sentences[0].end"},
		{"sentence ends before previous end", `{"sentences": [{"start": 0, "end": 10, "text": "a"}, {"start": 2, "end": 6, "text": "b"}]}`, transcript.Malformed, "sentences[1].end"},
		{"sentence ends at previous end", `{"sentences": [{"start": 0, "end": 6, "text": "a"}, {"start": 6, "end": 6, "text": "b"}]}`, transcript.Malformed, "sentences[1].end"},
		{"negative word", `{"sentences": [{"start": 0, "end": 3, "text": "a"}], "words": [{"start": -1, "end": 1, "word": "x"}]}`, transcript.Malformed, "words[0]"},
		{"unordered words", `{"sentences": [{"start": 0, "end": 3, "text": "a"}], "words": [{"start": 1, "end": 2, "word": "x"}, {"start": 0.5, "end": 2, "word": "y"}]}`, transcript.Malformed, "words[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transcript.Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			var perr *transcript.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", perr.Kind, tt.kind)
			}
			if tt.field != "" && perr.Field != tt.field {
				t.Fatalf("field = %q, want %q", perr.Field, tt.field)
			}
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected ErrParse marker, got %v", err)
			}
		})
	}
}

func TestParseToleratesMissingWords(t *testing.T) {
	tr, err := transcript.Parse([]byte(`{"sentences": [{"start": 0, "end": 1, "text": "a"}]}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(tr.Words) != 0 {
		t.Fatalf("expected no words, got %d", len(tr.Words))
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtitles.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	tr, err := transcript.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(tr.Sentences) != 2 {
		t.Fatalf("unexpected sentence count %d", len(tr.Sentences))
	}

	_, err = transcript.Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrParse) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected parse error wrapping not-exist, got %v", err)
	}
}
