package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Tracked       int    `json:"tracked"`
	StateFile     string `json:"stateFile"`
	History       string `json:"history,omitempty"`
}

// StateEntry is one tracked product.
type StateEntry struct {
	ProductID   string `json:"productId"`
	Title       string `json:"title,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	MediaID     string `json:"mediaId,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// StateListResponse is returned by GET /api/state.
type StateListResponse struct {
	Products []StateEntry   `json:"products"`
	Counts   map[string]int `json:"counts"`
}

// Attempt is one journal row.
type Attempt struct {
	ID          int64  `json:"id"`
	RunID       string `json:"runId,omitempty"`
	ProductID   string `json:"productId"`
	Title       string `json:"title,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	MediaID     string `json:"mediaId,omitempty"`
	TaskID      string `json:"taskId,omitempty"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt,omitempty"`
	DurationMS  int64  `json:"durationMs,omitempty"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Attempts []Attempt `json:"attempts"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
