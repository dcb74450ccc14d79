package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCompositor()
	if err := c.normalizeCaptions(); err != nil {
		return err
	}
	if err := c.normalizeMusic(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeWorkers()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ReelsDir, err = expandPath(c.Paths.ReelsDir); err != nil {
		return fmt.Errorf("paths.reels_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("REELFORGE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeCompositor() {
	c.Compositor.Binary = strings.TrimSpace(c.Compositor.Binary)
	if c.Compositor.Binary == "" {
		c.Compositor.Binary = defaultCompositorBinary
	}
	c.Compositor.VideoCodec = strings.TrimSpace(c.Compositor.VideoCodec)
	if c.Compositor.VideoCodec == "" {
		c.Compositor.VideoCodec = defaultVideoCodec
	}
	c.Compositor.AudioCodec = strings.TrimSpace(c.Compositor.AudioCodec)
	if c.Compositor.AudioCodec == "" {
		c.Compositor.AudioCodec = defaultAudioCodec
	}
	c.Compositor.Preset = strings.ToLower(strings.TrimSpace(c.Compositor.Preset))
	if c.Compositor.Preset == "" {
		c.Compositor.Preset = defaultPreset
	}
	c.Compositor.PixelFormat = strings.TrimSpace(c.Compositor.PixelFormat)
	if c.Compositor.PixelFormat == "" {
		c.Compositor.PixelFormat = defaultPixelFormat
	}
	c.Compositor.Fit = strings.ToLower(strings.TrimSpace(c.Compositor.Fit))
	if c.Compositor.Fit == "" {
		c.Compositor.Fit = defaultFit
	}
	if c.Compositor.TimeoutSeconds < 0 {
		c.Compositor.TimeoutSeconds = 0
	}
	if c.Compositor.MinFreeMiB < 0 {
		c.Compositor.MinFreeMiB = 0
	}
}

func (c *Config) normalizeCaptions() error {
	c.Captions.Style = strings.ToLower(strings.TrimSpace(c.Captions.Style))
	if c.Captions.Style == "" {
		c.Captions.Style = defaultCaptionStyle
	}
	c.Captions.FontName = strings.TrimSpace(c.Captions.FontName)
	if c.Captions.FontName == "" && strings.TrimSpace(c.Captions.FontFile) == "" {
		c.Captions.FontName = defaultFontName
	}
	if strings.TrimSpace(c.Captions.FontFile) != "" {
		var err error
		if c.Captions.FontFile, err = expandPath(strings.TrimSpace(c.Captions.FontFile)); err != nil {
			return fmt.Errorf("captions.font_file: %w", err)
		}
	}
	if c.Captions.FontSize <= 0 {
		c.Captions.FontSize = defaultFontSize
	}
	c.Captions.NeutralColor = normalizeColor(c.Captions.NeutralColor, defaultNeutralColor)
	c.Captions.HighlightColor = normalizeColor(c.Captions.HighlightColor, defaultHighlightColor)
	c.Captions.DimColor = normalizeColor(c.Captions.DimColor, defaultDimColor)
	c.Captions.OutlineColor = normalizeColor(c.Captions.OutlineColor, defaultOutlineColor)
	if c.Captions.ChunkSize <= 0 {
		c.Captions.ChunkSize = defaultChunkSize
	}
	return nil
}

func normalizeColor(value, fallback string) string {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if value == "" {
		return fallback
	}
	return strings.ToUpper(value)
}

func (c *Config) normalizeMusic() error {
	var err error
	if strings.TrimSpace(c.Music.Dir) == "" {
		c.Music.Dir = defaultMusicDir
	}
	if c.Music.Dir, err = expandPath(c.Music.Dir); err != nil {
		return fmt.Errorf("music.dir: %w", err)
	}
	if c.Music.Tracks == nil {
		c.Music.Tracks = defaultMusicTracks()
	}
	tracks := make(map[string]string, len(c.Music.Tracks))
	for name, file := range c.Music.Tracks {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		tracks[key] = strings.TrimSpace(file)
	}
	c.Music.Tracks = tracks
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		if value, ok := os.LookupEnv("REELFORGE_GCS_BUCKET"); ok {
			c.Storage.Bucket = strings.TrimSpace(value)
		}
	}
	c.Storage.CredentialsFile = strings.TrimSpace(c.Storage.CredentialsFile)
	if c.Storage.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Storage.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Storage.CredentialsFile != "" {
		var err error
		if c.Storage.CredentialsFile, err = expandPath(c.Storage.CredentialsFile); err != nil {
			return fmt.Errorf("storage.credentials_file: %w", err)
		}
	}
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = defaultStoragePrefix
	}
	return nil
}

func (c *Config) normalizeWorkers() {
	if c.Workers.MaxConcurrent <= 0 {
		c.Workers.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Workers.AdmissionsPerMinute < 0 {
		c.Workers.AdmissionsPerMinute = 0
	}
	if c.Workers.AdmissionBurst <= 0 {
		c.Workers.AdmissionBurst = defaultAdmissionBurst
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("REELFORGE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
