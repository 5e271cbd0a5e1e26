package history

import (
	"database/sql"
	"errors"
	"time"
)

const attemptColumns = "id, run_id, product_id, title, fingerprint, image_url, status, error_message, media_id, task_id, started_at, finished_at"

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (Attempt, error) {
	var (
		attempt     Attempt
		runID       sql.NullString
		title       sql.NullString
		imageURL    sql.NullString
		errorMsg    sql.NullString
		mediaID     sql.NullString
		taskID      sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&attempt.ID,
		&runID,
		&attempt.ProductID,
		&title,
		&attempt.Fingerprint,
		&imageURL,
		&attempt.Status,
		&errorMsg,
		&mediaID,
		&taskID,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Attempt{}, err
	}
	attempt.RunID = runID.String
	attempt.Title = title.String
	attempt.ImageURL = imageURL.String
	attempt.Error = errorMsg.String
	attempt.MediaID = mediaID.String
	attempt.TaskID = taskID.String
	if started, err := parseTimeString(startedRaw); err == nil {
		attempt.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			attempt.FinishedAt = &finished
		}
	}
	return attempt, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
