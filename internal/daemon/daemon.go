package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/config"
	"reelforge/internal/deps"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/music"
	"reelforge/internal/preflight"
	"reelforge/internal/staging"
	"reelforge/internal/workflow"
)

// Daemon owns the server lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	runner  *workflow.Runner
	catalog *music.Catalog

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu      sync.Mutex
	checks  []preflight.Result
	started time.Time
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobsDBPath   string
	LockFilePath string
	Started      time.Time
	Pool         workflow.PoolStats
	JobCounts    map[jobs.Status]int
	Storage      bool
	MusicTracks  []string
	Dependencies []deps.Status
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, runner *workflow.Runner, catalog *music.Catalog, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || runner == nil {
		return nil, errors.New("daemon requires config, store, and workflow runner")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		runner:   runner,
		catalog:  catalog,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, recovers state left by a previous run,
// and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelforged instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.recover(runCtx)

	checks := preflight.RunAll(runCtx, d.cfg)
	for _, failed := range preflight.Failed(checks) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "jobs may fail until this is fixed"),
		)
	}

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.mu.Lock()
	d.cancel = cancel
	d.checks = checks
	d.started = time.Now()
	d.mu.Unlock()
	d.running.Store(true)
	d.logger.Info("reelforge daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

func (d *Daemon) recover(ctx context.Context) {
	if n, err := d.store.FailInterrupted(ctx); err != nil {
		logging.WarnWithContext(d.logger, "failed to mark interrupted jobs", "recovery_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale jobs remain in running state"),
		)
	} else if n > 0 {
		d.logger.Info("marked interrupted jobs failed",
			logging.Int64("count", n),
			logging.String(logging.FieldEventType, "jobs_interrupted"),
		)
	}

	staging.CleanOrphaned(ctx, d.cfg.Paths.WorkDir, nil, d.logger)
	logging.PruneJobLogs(d.logger, d.cfg.Paths.LogDir, d.cfg.Logging.RetentionDays, time.Now())
}

// Stop shuts down the HTTP API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelforge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the address the API is listening on, or "" when stopped.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// Status reports runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	checks := d.checks
	started := d.started
	d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobsDBPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		Started:      started,
		Pool:         d.runner.Pool().Stats(),
		Storage:      d.cfg.Storage.Enabled,
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
		Checks:       checks,
	}
	if d.catalog != nil {
		status.MusicTracks = d.catalog.Names()
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.JobCounts = counts
	} else {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}
	return status
}
