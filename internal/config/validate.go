package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"reelforge/internal/captions"
)

var x264Presets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true, "fast": true,
	"medium": true, "slow": true, "slower": true, "veryslow": true, "placebo": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCompositor(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateMusic(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateWorkers()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ReelsDir) == "" {
		return errors.New("paths.reels_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateCompositor() error {
	if c.Compositor.CRF < 0 || c.Compositor.CRF > 51 {
		return fmt.Errorf("compositor.crf must be between 0 and 51, got %d", c.Compositor.CRF)
	}
	if c.Compositor.VideoCodec == "libx264" && !x264Presets[c.Compositor.Preset] {
		return fmt.Errorf("compositor.preset %q is not a libx264 preset", c.Compositor.Preset)
	}
	switch c.Compositor.Fit {
	case "crop", "pad":
	default:
		return fmt.Errorf("compositor.fit must be crop or pad, got %q", c.Compositor.Fit)
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if _, err := captions.ParseStyle(c.Captions.Style); err != nil {
		return fmt.Errorf("captions.style: %w", err)
	}
	for key, value := range map[string]string{
		"captions.neutral_color":   c.Captions.NeutralColor,
		"captions.highlight_color": c.Captions.HighlightColor,
		"captions.dim_color":       c.Captions.DimColor,
		"captions.outline_color":   c.Captions.OutlineColor,
	} {
		if _, err := captions.ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Captions.FontSize <= 0 {
		return errors.New("captions.font_size must be positive")
	}
	if c.Captions.ChunkSize <= 0 {
		return errors.New("captions.chunk_size must be positive")
	}
	return nil
}

func (c *Config) validateMusic() error {
	if math.IsNaN(c.Music.Gain) || c.Music.Gain < 0 || c.Music.Gain > 4 {
		return fmt.Errorf("music.gain must be between 0 and 4, got %v", c.Music.Gain)
	}
	for name, file := range c.Music.Tracks {
		if file == "" {
			return fmt.Errorf("music.tracks.%s must name a file", name)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true (or set REELFORGE_GCS_BUCKET)")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.MaxConcurrent <= 0 {
		return errors.New("workers.max_concurrent must be positive")
	}
	if c.Workers.AdmissionBurst <= 0 {
		return errors.New("workers.admission_burst must be positive")
	}
	return nil
}
