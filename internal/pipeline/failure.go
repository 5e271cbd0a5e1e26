package pipeline

import (
	"errors"
	"strings"

	"auto3d/internal/services"
	"auto3d/internal/tracker"
)

// errorEchoPrefix starts the status metafield value for failed products.
const errorEchoPrefix = "error:"

// failureStatus maps a stage error to the terminal status it records.
func failureStatus(err error) tracker.Status {
	if errors.Is(err, services.ErrTimeout) {
		return tracker.StatusTimedOut
	}
	return tracker.StatusFailed
}

// errorEcho renders the status metafield value for a failure message.
func errorEcho(message string, limit int) string {
	return errorEchoPrefix + services.Truncate(message, limit)
}

func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = "unknown error"
	}
	return message
}
