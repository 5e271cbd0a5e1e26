package history

import "time"

// StatusInterrupted marks an attempt whose process exited before it finished.
const StatusInterrupted = "interrupted"

// Attempt is one orchestrator pass over a product that reached generation.
type Attempt struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id,omitempty"`
	ProductID   string     `json:"product_id"`
	Title       string     `json:"title,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	ImageURL    string     `json:"image_url,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	MediaID     string     `json:"media_id,omitempty"`
	TaskID      string     `json:"task_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the attempt reached a terminal outcome.
func (a Attempt) Finished() bool {
	return a.FinishedAt != nil
}

// Duration returns the elapsed time of a finished attempt, or zero.
func (a Attempt) Duration() time.Duration {
	if a.FinishedAt == nil {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// Result carries the terminal fields written by Finish.
type Result struct {
	Status  string
	Error   string
	MediaID string
	TaskID  string
}

// Filter narrows List results. Zero values match everything; Limit defaults
// to 50.
type Filter struct {
	ProductID string
	Status    string
	Limit     int
}
