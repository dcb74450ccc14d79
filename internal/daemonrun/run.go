package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"reelforge/internal/config"
	"reelforge/internal/daemon"
	"reelforge/internal/deps"
	"reelforge/internal/logging"
)

// PIDFileName is written under data_dir while the daemon runs.
const PIDFileName = "reelforged.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, receives the API address once the daemon is serving.
	Ready func(addr string)
}

// Run starts the reelforge daemon and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.MainLogName)
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	stack, err := NewStack(signalCtx, cfg, logger, StackOptions{})
	if err != nil {
		logger.Error("build runtime", logging.Error(err))
		return err
	}
	defer stack.Close()

	d, err := daemon.New(cfg, stack.Store, stack.Runner, stack.Catalog, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Stop()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another reelforged instance and the api_bind address"),
		)
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d.Addr())
	}

	<-signalCtx.Done()
	logger.Info("reelforge daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := deps.CheckCompositor(ctx, cfg.Compositor.Binary)
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", ffmpeg.Available),
		logging.String("ffmpeg_binary", ffmpeg.Command),
		logging.String("ffmpeg_version", ffmpeg.Detail),
		logging.Bool("storage_enabled", cfg.Storage.Enabled),
		logging.String("storage_bucket", cfg.Storage.Bucket),
		logging.Int("max_concurrent", cfg.Workers.MaxConcurrent),
		logging.String("caption_style", cfg.Captions.Style),
	)
}
