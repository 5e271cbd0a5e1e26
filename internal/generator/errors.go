package generator

import (
	"fmt"
	"strings"

	"auto3d/internal/services"
)

var (
	// ErrMissingTaskID means the create response carried neither task_id nor result.
	ErrMissingTaskID = fmt.Errorf("%w: generator response has no task id", services.ErrValidation)
	// ErrMissingModelURL means a succeeded task exposed no download URL for the format.
	ErrMissingModelURL = fmt.Errorf("%w: no model url from generator", services.ErrValidation)
	// ErrTimedOut means the task did not settle within the configured maximum wait.
	ErrTimedOut = fmt.Errorf("generation %w", services.ErrTimeout)
)

// APIError reports a non-2xx HTTP response from the generation service.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	if body == "" {
		return fmt.Sprintf("meshy %s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("meshy %s: http %d: %s", e.Op, e.StatusCode, body)
}

func (e *APIError) Unwrap() error { return services.ErrExternalTool }

// TaskFailedError reports a task that reached a terminal failure state.
type TaskFailedError struct {
	TaskID  string
	Status  string
	Message string
}

func (e *TaskFailedError) Error() string {
	return e.Message
}

func (e *TaskFailedError) Unwrap() error { return services.ErrExternalTool }
