package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelforge/internal/captions"
	"reelforge/internal/fileutil"
	"reelforge/internal/filtergraph"
	"reelforge/internal/images"
	"reelforge/internal/logging"
	"reelforge/internal/music"
	"reelforge/internal/services"
	"reelforge/internal/transcript"
)

// Job is one render request.
type Job struct {
	// ID names the workspace; a uuid is generated when empty.
	ID      string
	VideoID string
	// Music is nil for no background music. A non-nil empty name is an error.
	Music *string
	// Style overrides the configured caption style when set.
	Style captions.Style
	// OutputPath overrides <job folder>/output.mp4 when set.
	OutputPath string
	// Logger replaces the composer logger for this job, e.g. a per-job tee.
	Logger *slog.Logger
}

// Result describes a finished render.
type Result struct {
	JobID       string
	VideoID     string
	OutputPath  string
	SidecarPath string
	Style       captions.Style
	Images      int
	Duration    float64
	Music       string
	Elapsed     time.Duration
}

// Prepared is a job whose inputs have been parsed and resolved but for which
// nothing has been written yet.
type Prepared struct {
	Job        Job
	Layout     Layout
	Transcript *transcript.Transcript
	Slots      []images.Slot
	MusicPath  string
	Track      captions.Track
	Duration   float64
	OutputPath string
}

// Composer renders job folders into videos.
type Composer struct {
	opts    Options
	catalog *music.Catalog
	runner  Runner
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs a Composer that runs the compositor as a child process.
func New(opts Options, catalog *music.Catalog, logger *slog.Logger) *Composer {
	return &Composer{
		opts:    opts.withDefaults(),
		catalog: catalog,
		runner:  ExecRunner{},
		logger:  logging.NewComponentLogger(logger, "compose"),
		now:     time.Now,
	}
}

// WithRunner swaps the compositor runner, typically for tests.
func (c *Composer) WithRunner(r Runner) {
	if c != nil && r != nil {
		c.runner = r
	}
}

// Options returns the effective composer options.
func (c *Composer) Options() Options { return c.opts }

// Admit checks the parts of job that need no job folder reads: the video
// identifier and the music selection. Callers run it before waiting for a
// compositor slot so bad requests fail immediately.
func (c *Composer) Admit(job Job) error {
	if _, err := NewLayout(c.opts.ReelsDir, job.VideoID); err != nil {
		return err
	}
	if job.Music != nil {
		if _, err := c.catalog.Resolve(*job.Music); err != nil {
			return err
		}
	}
	return nil
}

// Prepare parses and resolves every input of job without touching the
// filesystem beyond reads. Music is resolved here so a bad selection fails
// before any compositor work.
func (c *Composer) Prepare(job Job) (*Prepared, error) {
	layout, err := NewLayout(c.opts.ReelsDir, job.VideoID)
	if err != nil {
		return nil, err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	t, err := transcript.Load(layout.TranscriptPath())
	if err != nil {
		return nil, err
	}
	assets, err := images.Discover(layout.ImagesDir(), c.opts.ImagePrefix)
	if err != nil {
		return nil, err
	}
	slots, err := images.Sequence(assets, t.Sentences)
	if err != nil {
		return nil, err
	}

	var musicPath string
	if job.Music != nil {
		musicPath, err = c.catalog.Resolve(*job.Music)
		if err != nil {
			return nil, err
		}
	}

	style := c.opts.Style
	if job.Style != "" {
		style = job.Style
	}
	track, err := captions.Compose(style, t, c.opts.Captions)
	if err != nil {
		return nil, err
	}
	if orphans := t.Orphans(); orphans > 0 && track.Style == captions.StyleKaraoke {
		logger := c.logger
		if job.Logger != nil {
			logger = job.Logger
		}
		logger.Debug("words outside every sentence omitted from captions",
			logging.String("video_id", job.VideoID),
			logging.Int("omitted_words", orphans),
		)
	}

	output := strings.TrimSpace(job.OutputPath)
	if output == "" {
		output = layout.OutputPath()
	}
	return &Prepared{
		Job:        job,
		Layout:     layout,
		Transcript: t,
		Slots:      slots,
		MusicPath:  musicPath,
		Track:      track,
		Duration:   t.TotalDuration(),
		OutputPath: output,
	}, nil
}

// Plan builds the compositor plan for prep with its artifacts placed in
// workspaceDir and output rendered to outputPath.
func (c *Composer) Plan(prep *Prepared, workspaceDir, outputPath string) (*Plan, error) {
	graph, err := filtergraph.Build(filtergraph.Input{
		Slots:         prep.Slots,
		TotalDuration: prep.Duration,
		HasMusic:      prep.MusicPath != "",
		MusicGain:     c.opts.MusicGain,
		Fit:           c.opts.Fit,
		Track:         prep.Track,
		Look:          c.opts.Look,
		SubtitlePath:  filepath.Join(workspaceDir, prep.Track.FileName()),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "compose", "build filter graph", "", err)
	}
	return NewPlan(PlanInput{
		Slots:         prep.Slots,
		NarrationPath: prep.Layout.NarrationPath(),
		MusicPath:     prep.MusicPath,
		Graph:         graph,
		Profile:       c.opts.Profile,
		Overwrite:     c.opts.Overwrite,
		OutputPath:    outputPath,
	})
}

// DryRun prepares job and returns the plan it would run, without creating a
// workspace or invoking the compositor.
func (c *Composer) DryRun(job Job) (*Prepared, *Plan, error) {
	prep, err := c.Prepare(job)
	if err != nil {
		return nil, nil, err
	}
	ws := WorkspacePath(c.opts.WorkDir, prep.Job.ID)
	plan, err := c.Plan(prep, ws, filepath.Join(ws, OutputFile))
	if err != nil {
		return nil, nil, err
	}
	return prep, plan, nil
}

// Compose renders job. The job workspace is removed on every exit path and
// the final output only appears once the compositor has succeeded.
func (c *Composer) Compose(ctx context.Context, job Job) (Result, error) {
	started := c.now()
	prep, err := c.Prepare(job)
	if err != nil {
		return Result{}, err
	}
	ctx = services.WithJobID(ctx, prep.Job.ID)
	base := c.logger
	if job.Logger != nil {
		base = logging.NewComponentLogger(job.Logger, "compose")
	}
	logger := logging.WithContext(ctx, base).With(logging.String(logging.FieldVideoID, job.VideoID))

	if !c.opts.Overwrite {
		if _, err := os.Stat(prep.OutputPath); err == nil {
			return Result{}, services.Wrap(services.ErrValidation, "compose", "output", "output exists and overwrite is disabled: "+prep.OutputPath, nil)
		}
	}
	if err := os.MkdirAll(filepath.Dir(prep.OutputPath), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "compose", "output", "create output directory", err)
	}

	lock := flock.New(prep.OutputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "compose", "lock output", "", err)
	}
	if !locked {
		return Result{}, services.Wrap(services.ErrValidation, "compose", "lock output", "another job is rendering "+prep.OutputPath, nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	ws, err := NewWorkspace(c.opts.WorkDir, prep.Job.ID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "compose", "workspace", "", err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logging.WarnWithContext(logger, "workspace release failed", "workspace_release_failed",
				logging.String("path", ws.Dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run reelforge cleanup"),
				logging.String(logging.FieldImpact, "scratch files remain in work_dir"),
			)
		}
	}()

	artifact := ws.Path(prep.Track.FileName())
	if err := fileutil.WriteFileAtomic(artifact, prep.Track.Encode(c.opts.Look), 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "compose", "write captions", "", err)
	}

	tmpOutput := ws.Path(OutputFile)
	plan, err := c.Plan(prep, ws.Dir, tmpOutput)
	if err != nil {
		return Result{}, err
	}
	logger.Info("composition planned",
		logging.String(logging.FieldEventType, "plan_built"),
		logging.Int("images", len(prep.Slots)),
		logging.Float64("duration_seconds", prep.Duration),
		logging.String("caption_style", string(prep.Track.Style)),
		logging.Bool("music", prep.MusicPath != ""),
	)
	logger.Debug("compositor command", logging.String("command", plan.CommandLine(c.opts.Binary)))

	runCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	if err := c.runner.Run(runCtx, c.opts.Binary, plan.Args()); err != nil {
		var cerr *CompositorError
		if !errors.As(err, &cerr) {
			err = &CompositorError{Binary: c.opts.Binary, ExitCode: -1, Err: err}
		}
		return Result{}, err
	}
	if _, err := os.Stat(tmpOutput); err != nil {
		return Result{}, &CompositorError{Binary: c.opts.Binary, ExitCode: 0, Err: fmt.Errorf("no output produced: %w", err)}
	}
	if err := fileutil.MoveFile(tmpOutput, prep.OutputPath); err != nil {
		return Result{}, services.Wrap(services.ErrCompositor, "compose", "move output", "", err)
	}

	result := Result{
		JobID:      prep.Job.ID,
		VideoID:    job.VideoID,
		OutputPath: prep.OutputPath,
		Style:      prep.Track.Style,
		Images:     len(prep.Slots),
		Duration:   prep.Duration,
		Music:      prep.MusicPath,
	}
	if c.opts.Sidecar {
		sidecar := filepath.Join(filepath.Dir(prep.OutputPath), prep.Track.FileName())
		if err := fileutil.CopyFile(artifact, sidecar); err != nil {
			logging.WarnWithContext(logger, "caption sidecar copy failed", "sidecar_failed",
				logging.String("path", sidecar),
				logging.Error(err),
				logging.String(logging.FieldImpact, "video rendered without a caption sidecar"),
			)
		} else {
			result.SidecarPath = sidecar
		}
	}
	result.Elapsed = c.now().Sub(started)
	logger.Info("composition finished",
		logging.String(logging.FieldEventType, "compose_complete"),
		logging.String("output", result.OutputPath),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
