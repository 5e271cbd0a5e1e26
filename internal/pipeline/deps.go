package pipeline

import (
	"context"
	"log/slog"

	"auto3d/internal/catalog"
	"auto3d/internal/generator"
	"auto3d/internal/history"
	"auto3d/internal/metrics"
	"auto3d/internal/notifications"
	"auto3d/internal/tracker"
)

// Catalog is the subset of the catalog client the orchestrator writes to.
type Catalog interface {
	SetStatus(ctx context.Context, productID, value string) error
	StageUpload(ctx context.Context, filename string, size int) (catalog.StagedTarget, error)
	Upload(ctx context.Context, target catalog.StagedTarget, filename string, data []byte) error
	AttachModel(ctx context.Context, productID, resourceURL string) (catalog.Media, error)
}

// Generator turns an image URL into a model asset.
type Generator interface {
	Generate(ctx context.Context, imageURL string) (generator.Asset, error)
}

// StateTracker records per-product fingerprints and outcomes.
type StateTracker interface {
	ShouldProcess(productID, fp string) bool
	ShouldRetry(productID, fp string) bool
	RecordSkippedExisting(productID, fp string) error
	RecordOutcome(productID, fp string, outcome tracker.Outcome) error
}

// Journal records attempts. It is optional.
type Journal interface {
	Begin(ctx context.Context, attempt history.Attempt) (int64, error)
	Finish(ctx context.Context, id int64, result history.Result) error
}

// Deps are the orchestrator's collaborators. Catalog, Generator, and Tracker
// are required.
type Deps struct {
	Catalog   Catalog
	Generator Generator
	Tracker   StateTracker
	Journal   Journal
	Metrics   *metrics.Collector
	Notifier  notifications.Service
	Logger    *slog.Logger
}

// Options tune orchestrator behaviour.
type Options struct {
	// UploadFilename names the staged upload (default auto3d.glb).
	UploadFilename string
	// RetryFailed re-runs products whose unchanged fingerprint last failed.
	RetryFailed bool
	// ErrorMessageLimit caps the error text echoed to the catalog (default 120 runes).
	ErrorMessageLimit int
}

const (
	defaultUploadFilename    = "auto3d.glb"
	defaultErrorMessageLimit = 120
)

func (o Options) withDefaults() Options {
	if o.UploadFilename == "" {
		o.UploadFilename = defaultUploadFilename
	}
	if o.ErrorMessageLimit <= 0 {
		o.ErrorMessageLimit = defaultErrorMessageLimit
	}
	return o
}
