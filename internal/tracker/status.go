package tracker

// Status is the recorded outcome of the most recent evaluation of a product.
type Status string

const (
	// StatusSkippedModelExists marks a product that already carried a 3D model.
	StatusSkippedModelExists Status = "skipped_model_exists"
	// StatusProcessing is echoed to the catalog while a product is in flight.
	// It is never stored as a terminal local state.
	StatusProcessing Status = "processing"
	// StatusReady marks a product whose generated model was attached.
	StatusReady Status = "ready"
	// StatusFailed marks a failed generate, upload, or attach attempt.
	StatusFailed Status = "failed"
	// StatusTimedOut marks a generation that exceeded the configured ceiling.
	StatusTimedOut Status = "timed_out"
)

// Statuses lists every value in display order.
var Statuses = []Status{
	StatusProcessing,
	StatusReady,
	StatusSkippedModelExists,
	StatusFailed,
	StatusTimedOut,
}

// IsFailure reports whether the status records an unsuccessful attempt.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusTimedOut
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}
