package jobs

import (
	"database/sql"
)

const jobColumns = "id, video_id, music, caption_style, status, output_path, public_url, error_kind, error_message, log_path, duration_seconds, created_at, updated_at, started_at, finished_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		music        sql.NullString
		captionStyle sql.NullString
		statusStr    string
		outputPath   sql.NullString
		publicURL    sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		logPath      sql.NullString
		duration     sql.NullFloat64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.VideoID,
		&music,
		&captionStyle,
		&statusStr,
		&outputPath,
		&publicURL,
		&errorKind,
		&errorMessage,
		&logPath,
		&duration,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	if music.Valid {
		value := music.String
		job.Music = &value
	}
	job.CaptionStyle = captionStyle.String
	job.Status = Status(statusStr)
	job.OutputPath = outputPath.String
	job.PublicURL = publicURL.String
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	job.LogPath = logPath.String
	job.DurationSeconds = duration.Float64
	job.CreatedAt = parseTime(createdRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	job.StartedAt = parseTime(startedRaw)
	job.FinishedAt = parseTime(finishedRaw)
	return &job, nil
}
