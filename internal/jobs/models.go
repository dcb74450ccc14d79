package jobs

import (
	"time"

	"reelforge/internal/services"
)

// Status represents the lifecycle of a render job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusReview marks jobs whose inputs need fixing before a retry.
	StatusReview Status = "review"
)

// InterruptedReason is recorded on jobs that were in flight when the server stopped.
const InterruptedReason = "server stopped before the job finished"

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

// ParseStatus validates a status name.
func ParseStatus(value string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// Statuses returns every known status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	}
	return false
}

// Active reports whether the job is queued or in progress.
func (s Status) Active() bool {
	return !s.Terminal()
}

// Job is a persisted render request.
type Job struct {
	ID              string
	VideoID         string
	Music           *string
	CaptionStyle    string
	Status          Status
	OutputPath      string
	PublicURL       string
	ErrorKind       string
	ErrorMessage    string
	LogPath         string
	DurationSeconds float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Elapsed returns the wall time from start to finish, or zero when the job
// has not finished.
func (j *Job) Elapsed() time.Duration {
	if j == nil || j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// MusicName returns the music selection or "" when none was requested.
func (j *Job) MusicName() string {
	if j == nil || j.Music == nil {
		return ""
	}
	return *j.Music
}

// FailureStatus maps a job error to the status persisted after the failure.
// Problems with the job folder or request land in review; compositor,
// upload, and unclassified failures are failed.
func FailureStatus(err error) Status {
	switch services.Kind(err) {
	case "parse", "asset_discovery", "count_mismatch", "configuration", "validation":
		return StatusReview
	default:
		return StatusFailed
	}
}
