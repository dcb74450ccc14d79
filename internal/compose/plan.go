package compose

import (
	"errors"
	"strconv"
	"strings"

	"reelforge/internal/filtergraph"
	"reelforge/internal/images"
)

// EncodeProfile is the output encode configuration.
type EncodeProfile struct {
	VideoCodec  string
	AudioCodec  string
	Preset      string
	CRF         int
	PixelFormat string
}

// DefaultProfile is H.264/AAC at CRF 23 with the medium preset.
func DefaultProfile() EncodeProfile {
	return EncodeProfile{
		VideoCodec:  "libx264",
		AudioCodec:  "aac",
		Preset:      "medium",
		CRF:         23,
		PixelFormat: "yuv420p",
	}
}

// PlanInput collects everything a plan is derived from. Inputs are declared
// in the order the filter graph numbers them: images, narration, music.
type PlanInput struct {
	Slots         []images.Slot
	NarrationPath string
	// MusicPath is empty when the job has no background music.
	MusicPath  string
	Graph      *filtergraph.Graph
	Profile    EncodeProfile
	Overwrite  bool
	OutputPath string
}

// Plan is the immutable compositor invocation for one job.
type Plan struct {
	args   []string
	graph  string
	output string
	inputs int
}

// NewPlan assembles the compositor argument list.
func NewPlan(in PlanInput) (*Plan, error) {
	if len(in.Slots) == 0 {
		return nil, errors.New("plan: no image slots")
	}
	if strings.TrimSpace(in.NarrationPath) == "" {
		return nil, errors.New("plan: narration path is required")
	}
	if in.Graph == nil {
		return nil, errors.New("plan: filter graph is required")
	}
	if strings.TrimSpace(in.OutputPath) == "" {
		return nil, errors.New("plan: output path is required")
	}
	profile := in.Profile
	if profile == (EncodeProfile{}) {
		profile = DefaultProfile()
	}

	graph := in.Graph.String()
	args := make([]string, 0, 4*len(in.Slots)+24)
	if in.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	for _, slot := range in.Slots {
		args = append(args, "-loop", "1", "-i", slot.Path)
	}
	args = append(args, "-i", in.NarrationPath)
	inputs := len(in.Slots) + 1
	if in.MusicPath != "" {
		args = append(args, "-i", in.MusicPath)
		inputs++
	}
	args = append(args, "-filter_complex", graph)
	for _, sink := range in.Graph.Sinks {
		args = append(args, "-map", "["+sink+"]")
	}
	args = append(args,
		"-c:a", profile.AudioCodec,
		"-c:v", profile.VideoCodec,
		"-preset", profile.Preset,
		"-crf", strconv.Itoa(profile.CRF),
		"-pix_fmt", profile.PixelFormat,
		"-movflags", "+faststart",
		in.OutputPath,
	)
	return &Plan{args: args, graph: graph, output: in.OutputPath, inputs: inputs}, nil
}

// Args returns a copy of the compositor arguments.
func (p *Plan) Args() []string {
	out := make([]string, len(p.args))
	copy(out, p.args)
	return out
}

// Graph returns the rendered filter_complex text.
func (p *Plan) Graph() string { return p.graph }

// OutputPath is the file the compositor writes.
func (p *Plan) OutputPath() string { return p.output }

// Inputs reports how many -i inputs the plan declares.
func (p *Plan) Inputs() int { return p.inputs }

// CommandLine renders binary plus arguments with shell quoting for display.
func (p *Plan) CommandLine(binary string) string {
	parts := make([]string, 0, len(p.args)+1)
	parts = append(parts, shellQuote(binary))
	for _, a := range p.args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:+=,", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
