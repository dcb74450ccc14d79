package music

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reelforge/internal/services"
)

// DefaultTracks is the stock catalog shipped with the sample configuration.
func DefaultTracks() map[string]string {
	return map[string]string{
		"lofi":      "lofi.mp3",
		"upbeat":    "upbeat.mp3",
		"cinematic": "cinematic.mp3",
		"ambient":   "ambient.mp3",
	}
}

// Catalog maps selection names to track files relative to Dir.
type Catalog struct {
	Dir    string
	Tracks map[string]string
}

// NewCatalog copies tracks so later mutation of the caller's map does not
// leak into resolution. Names are matched case-insensitively.
func NewCatalog(dir string, tracks map[string]string) *Catalog {
	normalized := make(map[string]string, len(tracks))
	for name, file := range tracks {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		normalized[key] = strings.TrimSpace(file)
	}
	return &Catalog{Dir: dir, Tracks: normalized}
}

// Names returns the selectable track names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Tracks))
	for name := range c.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the absolute-or-configured path for the named track. An
// empty or unknown name is a ConfigError.
func (c *Catalog) Resolve(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", &ConfigError{Name: name, Reason: "music selection is empty"}
	}
	if c == nil || len(c.Tracks) == 0 {
		return "", &ConfigError{Name: name, Reason: "no music tracks are configured"}
	}
	file, ok := c.Tracks[key]
	if !ok || file == "" {
		return "", &ConfigError{Name: name, Reason: fmt.Sprintf("unknown music selection (available: %s)", strings.Join(c.Names(), ", "))}
	}
	if filepath.IsAbs(file) {
		return file, nil
	}
	return filepath.Join(c.Dir, file), nil
}

// Verify reports tracks whose files are missing on disk.
func (c *Catalog) Verify() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, name := range c.Names() {
		path, err := c.Resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, &ConfigError{Name: name, Reason: "track file unavailable", Err: err})
			continue
		}
		if info.IsDir() {
			errs = append(errs, &ConfigError{Name: name, Reason: fmt.Sprintf("track path %s is a directory", path)})
		}
	}
	return errors.Join(errs...)
}

// ConfigError reports an unusable music selection.
type ConfigError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("music %q: %s", e.Name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{services.ErrConfiguration, e.Err}
	}
	return []error{services.ErrConfiguration}
}

// ErrorKind classifies the error for job status mapping.
func (e *ConfigError) ErrorKind() string { return "configuration" }
