package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkspacePrefix names per-job directories under the work dir.
const WorkspacePrefix = "job-"

// Workspace is a private scratch directory for one job.
type Workspace struct {
	Dir   string
	JobID string
}

// WorkspacePath returns the directory a job would use without creating it.
func WorkspacePath(workDir, jobID string) string {
	return filepath.Join(workDir, WorkspacePrefix+jobID)
}

// NewWorkspace creates <workDir>/job-<jobID>. An existing directory is an
// error so two jobs never share scratch space.
func NewWorkspace(workDir, jobID string) (*Workspace, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("workspace: job id is required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create work dir: %w", err)
	}
	dir := WorkspacePath(workDir, jobID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	return &Workspace{Dir: dir, JobID: jobID}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release removes the workspace and everything in it.
func (w *Workspace) Release() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}
