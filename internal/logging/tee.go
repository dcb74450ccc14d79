package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type teeHandler struct {
	handlers []slog.Handler
}

// Tee returns a handler that writes every record to all non-nil handlers.
func Tee(handlers ...slog.Handler) slog.Handler {
	live := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	switch len(live) {
	case 0:
		return NoopHandler{}
	case 1:
		return live[0]
	}
	return &teeHandler{handlers: live}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}

// JobLogDir is the subdirectory of the log dir holding per-job logs.
const JobLogDir = "jobs"

// JobLogPath returns the per-job log file for jobID.
func JobLogPath(logDir, jobID string) string {
	return filepath.Join(logDir, JobLogDir, jobID+".log")
}

// OpenJobLogger tees base into a JSON log file dedicated to one job. The
// returned closer must be called once the job finishes. An empty logDir
// returns base unchanged.
func OpenJobLogger(base *slog.Logger, logDir, jobID string) (*slog.Logger, io.Closer, error) {
	if base == nil {
		base = NewNop()
	}
	if logDir == "" || jobID == "" {
		return base, io.NopCloser(nil), nil
	}
	path := JobLogPath(logDir, jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create job log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open job log %s: %w", path, err)
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	jobHandler, err := newJSONHandler(file, level, false)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	logger := slog.New(Tee(base.Handler(), jobHandler)).With(String(FieldJobID, jobID))
	return logger, file, nil
}
