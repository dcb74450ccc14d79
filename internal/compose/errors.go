package compose

import (
	"fmt"
	"strings"

	"reelforge/internal/services"
)

// CompositorError reports a failed compositor run. ExitCode is -1 when the
// process never started or was killed.
type CompositorError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CompositorError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("%s failed to run", e.Binary)
	}
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompositorError) Unwrap() []error {
	if e.Err != nil {
		return []error{services.ErrCompositor, e.Err}
	}
	return []error{services.ErrCompositor}
}

// ErrorKind classifies the error for job status mapping.
func (e *CompositorError) ErrorKind() string { return "compositor" }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	return strings.TrimSpace(s)
}
