package filtergraph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelforge/internal/captions"
	"reelforge/internal/images"
)

// Frame geometry of the output video: 9:16 portrait at 1080 wide.
const (
	FrameWidth  = 1080
	AspectRatio = 9.0 / 16.0
)

// FrameHeight is derived from the width and aspect ratio (1920).
var FrameHeight = int(math.Round(FrameWidth / AspectRatio))

// Sink labels mapped to the output file.
const (
	SinkVideo = "vout"
	SinkAudio = "aout"
)

// Fit selects how images are normalized to the frame.
type Fit string

const (
	// FitCrop fills the frame and crops the overflow.
	FitCrop Fit = "crop"
	// FitPad letterboxes the image inside the frame.
	FitPad Fit = "pad"
)

// Audio format applied to narration and music before mixing.
const (
	audioSampleFormat  = "fltp"
	audioSampleRate    = "44100"
	audioChannelLayout = "stereo"
)

// Input collects everything the slideshow graph depends on.
type Input struct {
	Slots         []images.Slot
	TotalDuration float64
	HasMusic      bool
	MusicGain     float64
	Fit           Fit
	Width         int
	Height        int
	Track         captions.Track
	Look          captions.Appearance
	// SubtitlePath is the rendered caption artifact burned in by the
	// karaoke and plain styles.
	SubtitlePath string
}

// Build assembles and validates the slideshow filter graph. Input pads are
// numbered the way the composition plan declares inputs: images first, then
// narration, then the optional music track.
func Build(in Input) (*Graph, error) {
	if len(in.Slots) == 0 {
		return nil, errors.New("filter graph: at least one image is required")
	}
	if in.TotalDuration <= 0 {
		return nil, fmt.Errorf("filter graph: total duration must be positive, got %v", in.TotalDuration)
	}
	width, height := in.Width, in.Height
	if width <= 0 || height <= 0 {
		width, height = FrameWidth, FrameHeight
	}

	g := &Graph{Sinks: []string{SinkVideo, SinkAudio}}
	n := len(in.Slots)

	trimmed := make([]string, n)
	for i, slot := range in.Slots {
		if slot.Duration <= 0 {
			return nil, fmt.Errorf("filter graph: image %d duration must be positive, got %v", i, slot.Duration)
		}
		framed := fmt.Sprintf("v%d", i)
		g.Stages = append(g.Stages, Stage{
			Inputs:  []string{fmt.Sprintf("%d:v", i)},
			Filters: frameFilters(in.Fit, width, height),
			Outputs: []string{framed},
		})
		trimmed[i] = framed + "t"
		g.Stages = append(g.Stages, Stage{
			Inputs: []string{framed},
			Filters: []Filter{
				F("trim", "duration", Seconds(slot.Duration)),
				F("setpts", "", "PTS-STARTPTS"),
			},
			Outputs: []string{trimmed[i]},
		})
	}
	g.Stages = append(g.Stages, Stage{
		Inputs:  trimmed,
		Filters: []Filter{F("concat", "n", strconv.Itoa(n), "v", "1", "a", "0")},
		Outputs: []string{"vcat"},
	})

	g.Stages = append(g.Stages, Stage{
		Inputs: []string{fmt.Sprintf("%d:a", n)},
		Filters: []Filter{
			audioFormat(),
			F("atrim", "duration", Seconds(in.TotalDuration)),
		},
		Outputs: []string{"narr"},
	})
	if in.HasMusic {
		g.Stages = append(g.Stages,
			Stage{
				Inputs:  []string{fmt.Sprintf("%d:a", n+1)},
				Filters: []Filter{audioFormat(), F("volume", "", Seconds(in.MusicGain))},
				Outputs: []string{"bgm"},
			},
			Stage{
				Inputs:  []string{"narr", "bgm"},
				Filters: []Filter{F("amix", "inputs", "2", "duration", "first", "dropout_transition", "0")},
				Outputs: []string{"mixed"},
			},
		)
	} else {
		g.Stages = append(g.Stages, Stage{
			Inputs:  []string{"narr"},
			Filters: []Filter{F("anull")},
			Outputs: []string{"mixed"},
		})
	}

	g.Stages = append(g.Stages, Stage{
		Inputs:  []string{"vcat", "mixed"},
		Filters: []Filter{F("concat", "n", "1", "v", "1", "a", "1")},
		Outputs: []string{"vjoin", SinkAudio},
	})

	captionStages, err := captionStages(in, "vjoin")
	if err != nil {
		return nil, err
	}
	g.Stages = append(g.Stages, captionStages...)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func frameFilters(fit Fit, width, height int) []Filter {
	w, h := strconv.Itoa(width), strconv.Itoa(height)
	if fit == FitPad {
		return []Filter{
			F("scale", "", w, "", h, "force_original_aspect_ratio", "decrease"),
			F("pad", "", w, "", h, "", "(ow-iw)/2", "", "(oh-ih)/2", "", "black"),
			F("setsar", "", "1"),
		}
	}
	return []Filter{
		F("scale", "", w, "", h, "force_original_aspect_ratio", "increase"),
		F("crop", "", w, "", h),
		F("setsar", "", "1"),
	}
}

func audioFormat() Filter {
	return F("aformat",
		"sample_fmts", audioSampleFormat,
		"sample_rates", audioSampleRate,
		"channel_layouts", audioChannelLayout,
	)
}

func captionStages(in Input, source string) ([]Stage, error) {
	switch in.Track.Style {
	case captions.StyleFlash:
		return flashStages(in.Track.Events, in.Look, source), nil
	case captions.StyleKaraoke, captions.StylePlain:
		if strings.TrimSpace(in.SubtitlePath) == "" {
			return nil, fmt.Errorf("filter graph: %s captions need a subtitle artifact path", in.Track.Style)
		}
		return []Stage{{
			Inputs:  []string{source},
			Filters: []Filter{F("subtitles", "filename", Quote(in.SubtitlePath))},
			Outputs: []string{SinkVideo},
		}}, nil
	default:
		return nil, fmt.Errorf("filter graph: unsupported caption style %q", in.Track.Style)
	}
}

// flashStages chains one drawtext stage per caption event. With no events the
// video passes through unchanged so the graph shape stays uniform.
func flashStages(events []captions.Event, look captions.Appearance, source string) []Stage {
	if len(events) == 0 {
		return []Stage{{Inputs: []string{source}, Filters: []Filter{F("null")}, Outputs: []string{SinkVideo}}}
	}
	stages := make([]Stage, len(events))
	prev := source
	for k, ev := range events {
		out := fmt.Sprintf("cap%d", k)
		if k == len(events)-1 {
			out = SinkVideo
		}
		stages[k] = Stage{
			Inputs:  []string{prev},
			Filters: []Filter{drawtext(ev, look)},
			Outputs: []string{out},
		}
		prev = out
	}
	return stages
}

func drawtext(ev captions.Event, look captions.Appearance) Filter {
	color := look.Neutral
	if ev.Layer == captions.LayerHighlight {
		color = look.Highlight
	}
	window := fmt.Sprintf("between(t,%s,%s)", Seconds(ev.Start), Seconds(ev.End))

	f := Filter{Name: "drawtext"}
	if strings.TrimSpace(look.FontFile) != "" {
		f.Args = append(f.Args, Arg{Key: "fontfile", Value: Quote(look.FontFile)})
	} else if strings.TrimSpace(look.FontName) != "" {
		f.Args = append(f.Args, Arg{Key: "font", Value: Quote(look.FontName)})
	}
	f.Args = append(f.Args,
		Arg{Key: "fontsize", Value: strconv.Itoa(look.FontSize)},
		Arg{Key: "fontcolor", Value: color.Drawtext()},
		Arg{Key: "box", Value: "1"},
		Arg{Key: "boxcolor", Value: "black@0.5"},
		Arg{Key: "boxborderw", Value: "10"},
		Arg{Key: "x", Value: "(w-tw)/2"},
		Arg{Key: "y", Value: "(h-th)/2"},
		Arg{Key: "expansion", Value: "none"},
		Arg{Key: "text", Value: "'" + captions.EscapeDrawtext(ev.Text()) + "'"},
		Arg{Key: "enable", Value: "'" + window + "'"},
		Arg{Key: "alpha", Value: "'if(" + window + ",1,0)'"},
	)
	return f
}

var valueEscaper = strings.NewReplacer("'", `'\\\''`, ":", `\:`)

// Quote wraps an option value such as a file path in single quotes, escaping
// apostrophes and colons the same way caption text is escaped.
func Quote(value string) string {
	return "'" + valueEscaper.Replace(value) + "'"
}

// Seconds formats a time value at millisecond precision without trailing
// zeros so identical inputs always render identical graph text.
func Seconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
