package api

import (
	"fmt"
	"time"

	"reelforge/internal/deps"
	"reelforge/internal/jobs"
	"reelforge/internal/logs"
	"reelforge/internal/preflight"
	"reelforge/internal/services"
	"reelforge/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:              job.ID,
		VideoID:         job.VideoID,
		Music:           job.Music,
		CaptionStyle:    job.CaptionStyle,
		Status:          string(job.Status),
		OutputFile:      job.OutputPath,
		URL:             job.PublicURL,
		ErrorKind:       job.ErrorKind,
		ErrorMessage:    job.ErrorMessage,
		LogPath:         job.LogPath,
		DurationSeconds: job.DurationSeconds,
		CreatedAt:       formatTime(job.CreatedAt),
		UpdatedAt:       formatTime(job.UpdatedAt),
		StartedAt:       formatTime(job.StartedAt),
		FinishedAt:      formatTime(job.FinishedAt),
	}
}

// FromJobs converts a slice of job records, never returning nil.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromOutcome builds the POST /api/reels response for a workflow outcome.
func FromOutcome(out workflow.Outcome) ReelResponse {
	resp := ReelResponse{
		JobID:  out.JobID,
		Status: string(out.Status),
	}
	if out.Err != nil {
		resp.Message = fmt.Sprintf("Error generating video: %v", out.Err)
		resp.ErrorKind = services.Kind(out.Err)
		return resp
	}
	resp.Message = "Video generated successfully"
	resp.OutputFile = out.OutputPath()
	resp.URL = out.URL
	return resp
}

// FromTail wraps a log tail result, never returning nil lines.
func FromTail(jobID string, result logs.TailResult) JobLogResponse {
	lines := result.Lines
	if lines == nil {
		lines = []string{}
	}
	return JobLogResponse{JobID: jobID, Lines: lines, Offset: result.Offset}
}

// FromStats converts job counts keyed by status.
func FromStats(stats map[jobs.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromDependencies converts dependency statuses.
func FromDependencies(list []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(list))
	for i, dep := range list {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(list []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(list))
	for i, r := range list {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}

// FromPool converts pool occupancy.
func FromPool(stats workflow.PoolStats) PoolStatus {
	return PoolStatus{Size: stats.Size, Active: stats.Active, Waiting: stats.Waiting}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
