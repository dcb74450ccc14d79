package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ReelRequest is the body of POST /api/reels.
type ReelRequest struct {
	VideoID string `json:"video_id"`
	// Music is omitted for no background music.
	Music *string `json:"music,omitempty"`
	// CaptionStyle overrides the configured style (plain, flash, karaoke).
	CaptionStyle string `json:"caption_style,omitempty"`
}

// ReelResponse is returned by POST /api/reels for both success and failure.
// OutputFile is empty whenever ErrorKind is set.
type ReelResponse struct {
	Message    string `json:"message"`
	OutputFile string `json:"output_file"`
	URL        string `json:"url"`
	JobID      string `json:"job_id,omitempty"`
	Status     string `json:"status,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
}

// Job describes a job history entry in a transport-friendly format.
type Job struct {
	ID              string  `json:"id"`
	VideoID         string  `json:"video_id"`
	Music           *string `json:"music,omitempty"`
	CaptionStyle    string  `json:"caption_style,omitempty"`
	Status          string  `json:"status"`
	OutputFile      string  `json:"output_file,omitempty"`
	URL             string  `json:"url,omitempty"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	LogPath         string  `json:"log_path,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
	StartedAt       string  `json:"started_at,omitempty"`
	FinishedAt      string  `json:"finished_at,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobLogResponse carries raw log lines for a job and the offset to resume from.
type JobLogResponse struct {
	JobID  string   `json:"job_id"`
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// PoolStatus reports compositor slot usage.
type PoolStatus struct {
	Size    int `json:"size"`
	Active  int `json:"active"`
	Waiting int `json:"waiting"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	JobsDBPath   string             `json:"jobs_db_path"`
	LockFilePath string             `json:"lock_file_path"`
	Uptime       string             `json:"uptime,omitempty"`
	Pool         PoolStatus         `json:"pool"`
	JobCounts    map[string]int     `json:"job_counts"`
	Storage      bool               `json:"storage_enabled"`
	MusicTracks  []string           `json:"music_tracks"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// ErrorResponse is returned for transport-level failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
