package preflight

import (
	"context"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Reels directory", cfg.Paths.ReelsDir))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	if cfg.Compositor.MinFreeMiB > 0 {
		results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, uint64(cfg.Compositor.MinFreeMiB)))
	}
	results = append(results, CheckDirectoryAccess("Music directory", cfg.Music.Dir))
	if cfg.Storage.Enabled {
		results = append(results, CheckStorageCredentials(cfg.Storage))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
