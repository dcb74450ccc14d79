package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/logging"
)

func mkdirAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if age > 0 {
		ts := time.Now().Add(-age)
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldWorkspaces(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir := filepath.Join(tmpDir, "job-old")
	mkdirAged(t, oldDir, 2*time.Hour)
	recentDir := filepath.Join(tmpDir, "job-recent")
	mkdirAged(t, recentDir, 0)
	foreign := filepath.Join(tmpDir, "not-a-job")
	mkdirAged(t, foreign, 2*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old workspace should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent workspace should still exist")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("directories without the job prefix must be left alone")
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "job-file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(file, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("expected no removals, got %v", result.Removed)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatal("file should not be removed")
	}
}

func TestCleanOrphanedKeepsActiveJobs(t *testing.T) {
	tmpDir := t.TempDir()
	active := filepath.Join(tmpDir, "job-a")
	orphan := filepath.Join(tmpDir, "job-b")
	mkdirAged(t, active, 0)
	mkdirAged(t, orphan, 0)

	result := CleanOrphaned(context.Background(), tmpDir, map[string]struct{}{"a": {}}, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != orphan {
		t.Fatalf("expected only orphan removed, got %v", result.Removed)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatal("active workspace should remain")
	}
}

func TestCleanOrphanedNilActiveRemovesAll(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirAged(t, filepath.Join(tmpDir, "job-a"), 0)
	mkdirAged(t, filepath.Join(tmpDir, "job-b"), 0)

	result := CleanOrphaned(context.Background(), tmpDir, nil, nil)
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removals, got %v", result.Removed)
	}
}

func TestCleanStopsOnCancelledContext(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirAged(t, filepath.Join(tmpDir, "job-a"), 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := CleanStale(ctx, tmpDir, time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected cancellation error and no removals, got %+v", result)
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	ws := filepath.Join(tmpDir, "job-123")
	mkdirAged(t, ws, 0)
	if err := os.WriteFile(filepath.Join(ws, "captions.srt"), make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mkdirAged(t, filepath.Join(tmpDir, "other"), 0)

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories failed: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(dirs))
	}
	if dirs[0].JobID != "123" || dirs[0].Size != 100 || dirs[0].Path != ws {
		t.Fatalf("unexpected dir info: %+v", dirs[0])
	}

	missing, err := ListDirectories(filepath.Join(tmpDir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing dir, got %v, %v", missing, err)
	}
}
