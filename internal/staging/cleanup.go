package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/compose"
	"reelforge/internal/logging"
)

// CleanStaleResult contains the outcome of a workspace cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes job workspaces older than maxAge. Directories without
// the job workspace prefix are left alone.
func CleanStale(ctx context.Context, workDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, workDir, logger, "stale", func(_ string, info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

// CleanOrphaned removes job workspaces whose job id is not in active. The
// daemon calls it at startup, when no job can legitimately own a workspace.
func CleanOrphaned(ctx context.Context, workDir string, active map[string]struct{}, logger *slog.Logger) CleanStaleResult {
	return sweep(ctx, workDir, logger, "orphaned", func(jobID string, _ os.FileInfo) bool {
		_, ok := active[jobID]
		return !ok
	})
}

func sweep(ctx context.Context, workDir string, logger *slog.Logger, reason string, shouldRemove func(jobID string, info os.FileInfo) bool) CleanStaleResult {
	result := CleanStaleResult{}

	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx != nil && ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: ctx.Err()})
			return result
		}
		jobID, ok := strings.CutPrefix(entry.Name(), compose.WorkspacePrefix)
		if !entry.IsDir() || !ok || jobID == "" {
			continue
		}

		dirPath := filepath.Join(workDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !shouldRemove(jobID, info) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove "+reason+" job workspace",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check work_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed "+reason+" job workspace",
				logging.String("path", dirPath),
				logging.String(logging.FieldJobID, jobID),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "workspace_cleanup"),
			)
		}
	}

	return result
}

// ListDirectories returns the job workspaces in workDir with their metadata.
func ListDirectories(workDir string) ([]DirInfo, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		jobID, ok := strings.CutPrefix(entry.Name(), compose.WorkspacePrefix)
		if !entry.IsDir() || !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(workDir, entry.Name())
		size, _ := dirSize(dirPath)

		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			JobID:   jobID,
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	return dirs, nil
}

// DirInfo contains metadata about a job workspace.
type DirInfo struct {
	Name    string
	JobID   string
	Path    string
	ModTime time.Time
	Size    int64
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
