package api

import (
	"time"

	"auto3d/internal/history"
	"auto3d/internal/tracker"
)

// FromRecord converts a tracker record into its transport form.
func FromRecord(record tracker.Record) StateEntry {
	return StateEntry{
		ProductID:   record.ProductID,
		Title:       record.Title,
		Fingerprint: record.LastFingerprint,
		Status:      string(record.Status),
		Error:       record.Error,
		MediaID:     record.MediaID,
		UpdatedAt:   formatTime(record.UpdatedAt),
	}
}

// FromAttempt converts a journal row into its transport form.
func FromAttempt(attempt history.Attempt) Attempt {
	out := Attempt{
		ID:          attempt.ID,
		RunID:       attempt.RunID,
		ProductID:   attempt.ProductID,
		Title:       attempt.Title,
		Fingerprint: attempt.Fingerprint,
		Status:      attempt.Status,
		Error:       attempt.Error,
		MediaID:     attempt.MediaID,
		TaskID:      attempt.TaskID,
		StartedAt:   formatTime(attempt.StartedAt),
	}
	if attempt.FinishedAt != nil {
		out.FinishedAt = formatTime(*attempt.FinishedAt)
		out.DurationMS = attempt.Duration().Milliseconds()
	}
	return out
}

// StatusCounts flattens per-status counts for JSON output.
func StatusCounts(counts map[tracker.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
