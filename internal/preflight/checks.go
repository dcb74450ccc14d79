package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"reelforge/internal/config"
	"reelforge/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minMiB mebibytes available to unprivileged users.
func CheckFreeSpace(name, path string, minMiB uint64) Result {
	free, err := FreeMiB(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if free < minMiB {
		return Result{Name: name, Detail: fmt.Sprintf("%d MiB free, need %d MiB", free, minMiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MiB free", free)}
}

// FreeMiB reports the space available on the filesystem holding path.
func FreeMiB(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize) / (1 << 20), nil
}

// CheckStorageCredentials verifies that an explicit credentials file is
// readable. Ambient credentials are accepted without inspection.
func CheckStorageCredentials(cfg config.Storage) Result {
	const name = "Storage credentials"
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		return Result{Name: name, Passed: true, Detail: "using application default credentials"}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the daemon and the CLI status command use this.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return []deps.Status{deps.CheckCompositor(ctx, cfg.Compositor.Binary)}
}
