package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelforge/internal/captions"
	"reelforge/internal/compose"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/services"
	"reelforge/internal/storage"
)

const notifyTimeout = 15 * time.Second

// Composer renders a single job.
type Composer interface {
	Compose(ctx context.Context, job compose.Job) (compose.Result, error)
}

// Admitter is implemented by composers that can reject a job before it
// waits for a compositor slot.
type Admitter interface {
	Admit(job compose.Job) error
}

// Request is a render request from the CLI or HTTP API.
type Request struct {
	VideoID string
	// Music is nil when no background music was requested.
	Music *string
	// Style overrides the configured caption style when set.
	Style captions.Style
}

// Outcome is the result of running one request.
type Outcome struct {
	JobID   string
	VideoID string
	Status  jobs.Status
	Result  compose.Result
	URL     string
	Err     error
}

// OutputPath returns the rendered file, or "" when the job did not complete.
func (o Outcome) OutputPath() string {
	if o.Err != nil {
		return ""
	}
	return o.Result.OutputPath
}

// Runner executes render requests.
type Runner struct {
	store    *jobs.Store
	composer Composer
	uploader storage.Uploader
	notifier notifications.Notifier
	pool     *Pool
	logDir   string
	logger   *slog.Logger
}

// NewRunner wires a runner from configuration. A nil uploader disables
// publishing.
func NewRunner(cfg *config.Config, store *jobs.Store, composer Composer, uploader storage.Uploader, logger *slog.Logger) *Runner {
	if uploader == nil {
		uploader = storage.Disabled{}
	}
	return &Runner{
		store:    store,
		composer: composer,
		uploader: uploader,
		notifier: notifications.Noop{},
		pool:     NewPool(cfg.Workers.MaxConcurrent),
		logDir:   cfg.Paths.LogDir,
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
}

// WithNotifier sends job completion and failure alerts through n.
func (r *Runner) WithNotifier(n notifications.Notifier) {
	if n == nil {
		n = notifications.Noop{}
	}
	r.notifier = n
}

// Pool exposes the compositor pool for status reporting.
func (r *Runner) Pool() *Pool { return r.pool }

// Store exposes the job history store.
func (r *Runner) Store() *jobs.Store { return r.store }

// Execute runs req to completion and records every transition.
func (r *Runner) Execute(ctx context.Context, req Request) Outcome {
	videoID := strings.TrimSpace(req.VideoID)
	jobID := uuid.NewString()
	logPath := ""
	if r.logDir != "" {
		logPath = logging.JobLogPath(r.logDir, jobID)
	}

	job, err := r.store.Create(ctx, jobs.NewJob{
		ID:           jobID,
		VideoID:      videoID,
		Music:        req.Music,
		CaptionStyle: string(req.Style),
		LogPath:      logPath,
	})
	if err != nil {
		return Outcome{JobID: jobID, VideoID: videoID, Status: jobs.FailureStatus(err), Err: err}
	}

	jobLogger, closer, err := logging.OpenJobLogger(r.logger, r.logDir, job.ID)
	if err != nil {
		logging.WarnWithContext(r.logger, "job log unavailable", "job_log_failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "job runs without a dedicated debug log"),
		)
		jobLogger = r.logger.With(logging.String(logging.FieldJobID, job.ID))
	} else {
		defer closer.Close()
	}
	jobLogger = jobLogger.With(logging.String(logging.FieldVideoID, videoID))

	ctx = services.WithJobID(ctx, job.ID)
	out := Outcome{JobID: job.ID, VideoID: videoID, Status: jobs.StatusQueued}
	composeJob := compose.Job{
		ID:      job.ID,
		VideoID: videoID,
		Music:   req.Music,
		Style:   req.Style,
		Logger:  jobLogger,
	}

	if admitter, ok := r.composer.(Admitter); ok {
		if err := admitter.Admit(composeJob); err != nil {
			return r.fail(ctx, jobLogger, out, err)
		}
	}

	release, err := r.pool.Acquire(ctx)
	if err != nil {
		return r.fail(ctx, jobLogger, out, err)
	}
	defer release()

	if err := r.store.MarkRunning(ctx, job.ID); err != nil {
		return r.fail(ctx, jobLogger, out, err)
	}
	out.Status = jobs.StatusRunning
	jobLogger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("music", job.MusicName()),
	)

	result, err := r.composer.Compose(services.WithStage(ctx, "compose"), composeJob)
	if err != nil {
		return r.fail(ctx, jobLogger, out, err)
	}
	out.Result = result

	if _, disabled := r.uploader.(storage.Disabled); !disabled {
		if err := r.store.MarkUploading(ctx, job.ID, result.OutputPath); err != nil {
			return r.fail(ctx, jobLogger, out, err)
		}
		out.Status = jobs.StatusUploading
		url, err := r.uploader.Upload(services.WithStage(ctx, "upload"), videoID, result.OutputPath)
		if err != nil {
			return r.fail(ctx, jobLogger, out, err)
		}
		out.URL = url
	}

	if err := r.store.Complete(context.WithoutCancel(ctx), job.ID, jobs.Completion{
		OutputPath:      result.OutputPath,
		PublicURL:       out.URL,
		DurationSeconds: result.Duration,
	}); err != nil {
		return r.fail(ctx, jobLogger, out, err)
	}
	out.Status = jobs.StatusCompleted
	jobLogger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", result.OutputPath),
		logging.String("url", out.URL),
		logging.Duration("elapsed", result.Elapsed),
	)
	r.notify(ctx, jobLogger, notifications.EventJobCompleted, notifications.JobSummary{
		JobID:    out.JobID,
		VideoID:  videoID,
		Status:   string(out.Status),
		Output:   result.OutputPath,
		URL:      out.URL,
		Duration: result.Duration,
		Elapsed:  result.Elapsed,
	})
	return out
}

// ExecuteAll runs reqs concurrently, bounded by the pool, and returns the
// outcomes in request order.
func (r *Runner) ExecuteAll(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			outcomes[i] = r.Execute(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, out Outcome, cause error) Outcome {
	// Record the failure even when ctx was cancelled.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	status, err := r.store.Fail(recordCtx, out.JobID, cause)
	if err != nil {
		logging.WarnWithContext(logger, "failed to record job failure", "job_record_failed",
			logging.Error(err),
		)
		status = jobs.FailureStatus(cause)
	}
	out.Status = status
	out.Err = cause
	out.Result = compose.Result{}
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.String("status", string(status)),
	)
	r.notify(ctx, logger, notifications.EventJobFailed, notifications.JobSummary{
		JobID:     out.JobID,
		VideoID:   out.VideoID,
		Status:    string(status),
		ErrorKind: services.Kind(cause),
		Error:     cause.Error(),
	})
	return out
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, job notifications.JobSummary) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := r.notifier.Notify(sendCtx, event, job); err != nil {
		logging.WarnWithContext(logger, "job notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "job result was recorded but no alert was sent"),
		)
	}
}
