package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"reelforge/internal/compose"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/music"
	"reelforge/internal/notifications"
	"reelforge/internal/storage"
	"reelforge/internal/workflow"
)

// StackOptions adjusts NewStack.
type StackOptions struct {
	// DisableUpload skips blob publishing even when storage is enabled.
	DisableUpload bool
	// DisableNotifications keeps job alerts quiet, e.g. for interactive runs.
	DisableNotifications bool
	// Runner replaces the compositor process runner, typically in tests.
	Runner compose.Runner
}

// Stack holds the wired runtime components.
type Stack struct {
	Store    *jobs.Store
	Catalog  *music.Catalog
	Composer *compose.Composer
	Uploader storage.Uploader
	Notifier notifications.Notifier
	Runner   *workflow.Runner

	closers []io.Closer
}

// NewStack opens the jobs store and wires every component from cfg.
func NewStack(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts StackOptions) (*Stack, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	composeOpts, err := compose.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open jobs store: %w", err)
	}
	stack := &Stack{Store: store, closers: []io.Closer{store}}

	stack.Catalog = music.NewCatalog(cfg.Music.Dir, cfg.Music.Tracks)
	if err := stack.Catalog.Verify(); err != nil {
		logging.WarnWithContext(logger, "music catalog has missing tracks", "music_catalog_incomplete",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "place the track files in music.dir or fix music.tracks"),
			logging.String(logging.FieldImpact, "jobs selecting these tracks will fail in the compositor"),
		)
	}

	stack.Composer = compose.New(composeOpts, stack.Catalog, logger)
	if opts.Runner != nil {
		stack.Composer.WithRunner(opts.Runner)
	}

	storageCfg := cfg.Storage
	if opts.DisableUpload {
		storageCfg.Enabled = false
	}
	uploader, closer, err := storage.New(ctx, storageCfg, logger)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	stack.Uploader = uploader
	stack.closers = append(stack.closers, closer)

	stack.Runner = workflow.NewRunner(cfg, store, stack.Composer, uploader, logger)
	stack.Notifier = notifications.New(cfg.Notifications)
	if !opts.DisableNotifications {
		stack.Runner.WithNotifier(stack.Notifier)
	}
	return stack, nil
}

// Close releases the uploader client and the jobs store.
func (s *Stack) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
