package compose

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes the compositor.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, binary string, args []string) error

func (f RunnerFunc) Run(ctx context.Context, binary string, args []string) error {
	return f(ctx, binary, args)
}

// maxStderr bounds the stderr tail kept for error reports.
const maxStderr = 16 * 1024

// ExecRunner runs the compositor as a child process.
type ExecRunner struct{}

// Run executes binary and converts any failure into a *CompositorError
// carrying the exit code and the tail of stderr.
func (ExecRunner) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr tailBuffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	cerr := &CompositorError{Binary: binary, ExitCode: -1, Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		cerr.ExitCode = exitErr.ExitCode()
	} else {
		cerr.Err = err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cerr.Err = ctxErr
	}
	return cerr
}

// tailBuffer keeps the last maxStderr bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= maxStderr {
		t.buf.Reset()
		t.buf.Write(p[len(p)-maxStderr:])
		return n, nil
	}
	if over := t.buf.Len() + len(p) - maxStderr; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string { return t.buf.String() }
