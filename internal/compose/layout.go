package compose

import (
	"path/filepath"
	"strings"

	"reelforge/internal/services"
)

// Job folder entries relative to <reels_dir>/<video_id>.
const (
	TranscriptFile = "subtitles/subtitles.json"
	NarrationFile  = "full_audio.mp3"
	ImagesDir      = "images"
	OutputFile     = "output.mp4"
)

// Layout locates the inputs and output of one job folder.
type Layout struct {
	Dir string
}

// NewLayout validates videoID and returns the layout of its folder under
// reelsDir. Identifiers that would escape reelsDir are rejected.
func NewLayout(reelsDir, videoID string) (Layout, error) {
	id := strings.TrimSpace(videoID)
	if id == "" {
		return Layout{}, services.Wrap(services.ErrValidation, "compose", "layout", "video id is required", nil)
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return Layout{}, services.Wrap(services.ErrValidation, "compose", "layout", "video id must be a single path segment: "+id, nil)
	}
	return Layout{Dir: filepath.Join(reelsDir, id)}, nil
}

func (l Layout) TranscriptPath() string { return filepath.Join(l.Dir, filepath.FromSlash(TranscriptFile)) }

func (l Layout) NarrationPath() string { return filepath.Join(l.Dir, NarrationFile) }

func (l Layout) ImagesDir() string { return filepath.Join(l.Dir, ImagesDir) }

func (l Layout) OutputPath() string { return filepath.Join(l.Dir, OutputFile) }
