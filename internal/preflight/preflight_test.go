package preflight

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_Missing(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "missing"))
	if result.Passed {
		t.Fatal("expected missing directory to fail")
	}
}

func TestCheckDirectoryAccess_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result := CheckDirectoryAccess("test", file)
	if result.Passed {
		t.Fatal("expected regular file to fail")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 0); !result.Passed {
		t.Fatalf("expected zero threshold to pass, got %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, math.MaxUint64/(1<<21)); result.Passed {
		t.Fatal("expected absurd threshold to fail")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected missing path to fail")
	}
}

func TestCheckStorageCredentials(t *testing.T) {
	if result := CheckStorageCredentials(config.Storage{}); !result.Passed {
		t.Fatalf("expected ambient credentials to pass, got %s", result.Detail)
	}
	if result := CheckStorageCredentials(config.Storage{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}); result.Passed {
		t.Fatal("expected missing credentials file to fail")
	}
	creds := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(creds, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}
	if result := CheckStorageCredentials(config.Storage{CredentialsFile: creds}); !result.Passed {
		t.Fatalf("expected readable credentials to pass, got %s", result.Detail)
	}
}

func TestRunAllSkipsDisabledChecks(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ReelsDir = base
	cfg.Paths.WorkDir = base
	cfg.Music.Dir = base
	cfg.Compositor.MinFreeMiB = 0
	cfg.Storage.Enabled = false

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %#v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}

	cfg.Storage.Enabled = true
	cfg.Compositor.MinFreeMiB = 1
	results = RunAll(context.Background(), &cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results with storage and space checks, got %d", len(results))
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %#v", results)
	}
}
