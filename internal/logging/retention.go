package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneJobLogs removes per-job log files older than retentionDays and
// returns how many were deleted. A retentionDays value of 0 disables pruning.
func PruneJobLogs(logger *slog.Logger, logDir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || logDir == "" {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	dir := filepath.Join(logDir, JobLogDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "job log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old job log remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("job log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
