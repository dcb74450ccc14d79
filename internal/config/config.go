package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ReelsDir string `toml:"reels_dir"`
	WorkDir  string `toml:"work_dir"`
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Compositor contains the ffmpeg invocation and encode profile.
type Compositor struct {
	Binary         string `toml:"binary"`
	VideoCodec     string `toml:"video_codec"`
	AudioCodec     string `toml:"audio_codec"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	PixelFormat    string `toml:"pixel_format"`
	Overwrite      bool   `toml:"overwrite"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// Fit is "crop" (fill the frame) or "pad" (letterbox).
	Fit        string `toml:"fit"`
	MinFreeMiB int    `toml:"min_free_mib"`
}

// Captions contains caption style and appearance settings.
type Captions struct {
	Style          string `toml:"style"`
	FontName       string `toml:"font_name"`
	FontFile       string `toml:"font_file"`
	FontSize       int    `toml:"font_size"`
	NeutralColor   string `toml:"neutral_color"`
	HighlightColor string `toml:"highlight_color"`
	DimColor       string `toml:"dim_color"`
	OutlineColor   string `toml:"outline_color"`
	Uppercase      bool   `toml:"uppercase"`
	Sidecar        bool   `toml:"sidecar"`
	ChunkSize      int    `toml:"chunk_size"`
}

// Music contains the background-music catalog.
type Music struct {
	Dir    string            `toml:"dir"`
	Gain   float64           `toml:"gain"`
	Tracks map[string]string `toml:"tracks"`
}

// Storage contains blob upload settings.
type Storage struct {
	Enabled         bool   `toml:"enabled"`
	Bucket          string `toml:"bucket"`
	CredentialsFile string `toml:"credentials_file"`
	Prefix          string `toml:"prefix"`
}

// Workers bounds concurrent compositor runs and HTTP job admission.
type Workers struct {
	MaxConcurrent       int `toml:"max_concurrent"`
	AdmissionsPerMinute int `toml:"admissions_per_minute"`
	AdmissionBurst      int `toml:"admission_burst"`
}

// Notifications contains the optional ntfy endpoint for job alerts.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifySuccess         bool   `toml:"notify_success"`
	NotifyFailure         bool   `toml:"notify_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: job folders, workspaces, state, logs, and API bind address
//   - Compositor: ffmpeg binary, encode profile, timeouts, framing
//   - Captions: caption style, font, and palette
//   - Music: background-music catalog and mix gain
//   - Storage: optional GCS upload of finished videos
//   - Workers: compositor concurrency and HTTP admission rate
//   - Notifications: ntfy alerts for finished jobs
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Compositor    Compositor    `toml:"compositor"`
	Captions      Captions      `toml:"captions"`
	Music         Music         `toml:"music"`
	Storage       Storage       `toml:"storage"`
	Workers       Workers       `toml:"workers"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Decoding merges into existing maps, so a configured catalog must
		// replace the stock tracks rather than extend them. normalize restores
		// the defaults when the file has no [music.tracks] table.
		cfg.Music.Tracks = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI and server write into.
// The reels directory is created on a best-effort basis because it usually
// lives on shared storage populated by another service.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ReelsDir) != "" {
		_ = os.MkdirAll(c.Paths.ReelsDir, 0o755)
	}
	return nil
}

// CompositorTimeout returns the per-run compositor deadline. Zero disables it.
func (c *Config) CompositorTimeout() time.Duration {
	if c.Compositor.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Compositor.TimeoutSeconds) * time.Second
}

// JobsDBPath returns the location of the SQLite job history database.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the server single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelforged.lock")
}

// VideoDir returns the job folder for a video id under the reels directory.
func (c *Config) VideoDir(videoID string) string {
	return filepath.Join(c.Paths.ReelsDir, videoID)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
