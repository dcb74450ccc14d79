package compose

import (
	"time"

	"reelforge/internal/captions"
	"reelforge/internal/config"
	"reelforge/internal/filtergraph"
	"reelforge/internal/images"
)

// Options configures a Composer.
type Options struct {
	ReelsDir    string
	WorkDir     string
	Binary      string
	Profile     EncodeProfile
	Overwrite   bool
	Timeout     time.Duration
	Fit         filtergraph.Fit
	Style       captions.Style
	Captions    captions.Options
	Look        captions.Appearance
	MusicGain   float64
	Sidecar     bool
	ImagePrefix string
}

// OptionsFromConfig maps the compositor, captions, and music sections onto
// composer options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	style, err := captions.ParseStyle(cfg.Captions.Style)
	if err != nil {
		return Options{}, err
	}
	look, err := cfg.CaptionAppearance()
	if err != nil {
		return Options{}, err
	}
	return Options{
		ReelsDir: cfg.Paths.ReelsDir,
		WorkDir:  cfg.Paths.WorkDir,
		Binary:   cfg.Compositor.Binary,
		Profile: EncodeProfile{
			VideoCodec:  cfg.Compositor.VideoCodec,
			AudioCodec:  cfg.Compositor.AudioCodec,
			Preset:      cfg.Compositor.Preset,
			CRF:         cfg.Compositor.CRF,
			PixelFormat: cfg.Compositor.PixelFormat,
		},
		Overwrite: cfg.Compositor.Overwrite,
		Timeout:   cfg.CompositorTimeout(),
		Fit:       filtergraph.Fit(cfg.Compositor.Fit),
		Style:     style,
		Captions: captions.Options{
			ChunkSize: cfg.Captions.ChunkSize,
			Uppercase: cfg.Captions.Uppercase,
		},
		Look:        look,
		MusicGain:   cfg.Music.Gain,
		Sidecar:     cfg.Captions.Sidecar,
		ImagePrefix: images.DefaultPrefix,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.Binary == "" {
		o.Binary = "ffmpeg"
	}
	if o.Profile == (EncodeProfile{}) {
		o.Profile = DefaultProfile()
	}
	if o.Fit == "" {
		o.Fit = filtergraph.FitCrop
	}
	if o.Style == "" {
		o.Style = captions.StyleFlash
	}
	if o.Look.FontSize == 0 {
		o.Look = captions.DefaultAppearance()
	}
	if o.ImagePrefix == "" {
		o.ImagePrefix = images.DefaultPrefix
	}
	return o
}
