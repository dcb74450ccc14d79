package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/services"
)

// NewJob describes a job to insert.
type NewJob struct {
	ID           string
	VideoID      string
	Music        *string
	CaptionStyle string
	LogPath      string
}

// Create inserts a queued job. An empty ID is replaced with a fresh UUID.
func (s *Store) Create(ctx context.Context, spec NewJob) (*Job, error) {
	videoID := strings.TrimSpace(spec.VideoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "jobs", "create", "video id is required", nil)
	}
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		id = uuid.NewString()
	}
	ts := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (
            id, video_id, music, caption_style, status, log_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		videoID,
		nullablePtr(spec.Music),
		nullableString(spec.CaptionStyle),
		StatusQueued,
		nullableString(spec.LogPath),
		ts,
		ts,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Get returns the job with the given id, or nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Statuses []Status
	VideoID  string
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// List returns jobs newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Job, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if videoID := strings.TrimSpace(filter.VideoID); videoID != "" {
		clauses = append(clauses, "video_id = ?")
		args = append(args, videoID)
	}
	query := "SELECT " + jobColumns + " FROM jobs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// MarkRunning moves a queued job to running and stamps its start time.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	ts := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusRunning, ts, ts, id, StatusQueued,
	)
}

// MarkUploading records the rendered output and moves the job to uploading.
func (s *Store) MarkUploading(ctx context.Context, id, outputPath string) error {
	ts := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, output_path = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusUploading, nullableString(outputPath), ts, id, StatusRunning,
	)
}

// Completion carries the final artifacts of a successful job.
type Completion struct {
	OutputPath      string
	PublicURL       string
	DurationSeconds float64
}

// Complete marks an in-flight job completed.
func (s *Store) Complete(ctx context.Context, id string, done Completion) error {
	ts := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, output_path = ?, public_url = ?, duration_seconds = ?,
            error_kind = NULL, error_message = NULL, finished_at = ?, updated_at = ?
        WHERE id = ? AND status IN (?, ?)`,
		StatusCompleted,
		nullableString(done.OutputPath),
		nullableString(done.PublicURL),
		done.DurationSeconds,
		ts, ts, id,
		StatusRunning, StatusUploading,
	)
}

// Fail records err against an active job and returns the status it was given.
func (s *Store) Fail(ctx context.Context, id string, cause error) (Status, error) {
	status := FailureStatus(cause)
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	ts := s.timestamp()
	err := s.transition(ctx, id,
		`UPDATE jobs SET status = ?, error_kind = ?, error_message = ?, finished_at = ?, updated_at = ?
        WHERE id = ? AND status IN (?, ?, ?)`,
		status,
		services.Kind(cause),
		nullableString(message),
		ts, ts, id,
		StatusQueued, StatusRunning, StatusUploading,
	)
	return status, err
}

// ErrInvalidTransition is returned when a job is missing or not in the
// status a transition expects.
var ErrInvalidTransition = errors.New("invalid job transition")

func (s *Store) transition(ctx context.Context, id, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: job %s", ErrInvalidTransition, id)
	}
	return nil
}

// FailInterrupted fails every queued, running, or uploading job. It is called
// at daemon startup since no process owns those jobs anymore.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	ts := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_kind = ?, error_message = ?, finished_at = ?, updated_at = ?
        WHERE status IN (?, ?, ?)`,
		StatusFailed, "interrupted", InterruptedReason, ts, ts,
		StatusQueued, StatusRunning, StatusUploading,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes terminal jobs created before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE created_at < ? AND status IN (?, ?, ?)`,
		cutoff.UTC().Format(time.RFC3339Nano),
		StatusCompleted, StatusFailed, StatusReview,
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every job row.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns job counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}
