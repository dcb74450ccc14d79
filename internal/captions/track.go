package captions

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelforge/internal/services"
	"reelforge/internal/transcript"
)

// Style selects how captions are derived and burned in.
type Style string

const (
	StyleFlash   Style = "flash"
	StyleKaraoke Style = "karaoke"
	StylePlain   Style = "plain"
)

// ParseStyle normalizes a configured style name.
func ParseStyle(value string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(value))) {
	case StyleFlash:
		return StyleFlash, nil
	case StyleKaraoke:
		return StyleKaraoke, nil
	case StylePlain:
		return StylePlain, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "captions", "style", fmt.Sprintf("unknown caption style %q (want flash, karaoke, or plain)", value), nil)
	}
}

// Format is the subtitle encoding of a track artifact.
type Format string

const (
	FormatSRT Format = "srt"
	FormatASS Format = "ass"
)

// Options tunes caption derivation.
type Options struct {
	ChunkSize int
	Uppercase bool
}

// Track is the caption output for one job.
type Track struct {
	Style  Style
	Events []Event
}

// Format reports the artifact encoding: karaoke tracks need ASS colour
// overrides, the word-level styles use SRT.
func (t Track) Format() Format {
	if t.Style == StyleKaraoke {
		return FormatASS
	}
	return FormatSRT
}

// FileName is the artifact name inside a job workspace.
func (t Track) FileName() string {
	return "captions." + string(t.Format())
}

// Encode serializes the track. Flash tracks write only the base layer so the
// artifact keeps one cue per word.
func (t Track) Encode(look Appearance) []byte {
	if t.Format() == FormatASS {
		return EncodeASS(t.Events, look)
	}
	events := t.Events
	if t.Style == StyleFlash {
		events = make([]Event, 0, len(t.Events)/2)
		for _, ev := range t.Events {
			if ev.Layer == LayerBase {
				events = append(events, ev)
			}
		}
	}
	return EncodeSRT(events)
}

// Compose derives the caption track for the transcript in the given style.
func Compose(style Style, t *transcript.Transcript, opts Options) (Track, error) {
	if t == nil {
		return Track{}, services.Wrap(services.ErrValidation, "captions", "compose", "transcript is required", nil)
	}
	src := t
	if opts.Uppercase {
		src = uppercased(t)
	}
	switch style {
	case StyleFlash:
		return Track{Style: style, Events: Flash(src.Words)}, nil
	case StyleKaraoke:
		return Track{Style: style, Events: Karaoke(src, opts.ChunkSize)}, nil
	case StylePlain:
		return Track{Style: style, Events: PlainWords(src.Words)}, nil
	default:
		_, err := ParseStyle(string(style))
		return Track{}, err
	}
}

func uppercased(t *transcript.Transcript) *transcript.Transcript {
	upper := cases.Upper(language.Und)
	out := &transcript.Transcript{
		Sentences: t.Sentences,
		Words:     make([]transcript.Word, len(t.Words)),
	}
	for i, w := range t.Words {
		w.Text = upper.String(w.Text)
		out.Words[i] = w
	}
	return out
}
