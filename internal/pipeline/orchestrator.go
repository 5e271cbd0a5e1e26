package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auto3d/internal/catalog"
	"auto3d/internal/history"
	"auto3d/internal/logging"
	"auto3d/internal/metrics"
	"auto3d/internal/notifications"
	"auto3d/internal/services"
	"auto3d/internal/tracker"
)

// Decision is the orchestrator's verdict for one product.
type Decision string

const (
	DecisionNoImage            Decision = "no_image"
	DecisionUnchanged          Decision = "unchanged"
	DecisionSkippedModelExists Decision = "skipped_model_exists"
	DecisionAttached           Decision = "attached"
	DecisionFailed             Decision = "failed"
	// DecisionInterrupted leaves tracked state untouched so the product is
	// evaluated again by the next process.
	DecisionInterrupted Decision = "interrupted"
)

// Result reports what happened to one product.
type Result struct {
	ProductID string
	Decision  Decision
	// Status is the tracker status written, empty when nothing was recorded.
	Status tracker.Status
	// Err is a tracker write failure.
	Err error
	// Failure is the generate, upload, or attach error behind DecisionFailed.
	Failure error
	MediaID string
}

// Orchestrator runs the per-product state machine.
type Orchestrator struct {
	catalog   Catalog
	generator Generator
	tracker   StateTracker
	journal   Journal
	metrics   *metrics.Collector
	notifier  notifications.Service
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

// New builds an orchestrator. Missing optional collaborators become no-ops.
func New(deps Deps, opts Options) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Orchestrator{
		catalog:   deps.Catalog,
		generator: deps.Generator,
		tracker:   deps.Tracker,
		journal:   deps.Journal,
		metrics:   deps.Metrics,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		opts:      opts.withDefaults(),
		now:       time.Now,
	}
}

// Process evaluates one product and returns the decision. It never returns
// early on collaborator errors after generation starts; see Result.
func (o *Orchestrator) Process(ctx context.Context, product catalog.Product) Result {
	ctx = services.WithProductID(ctx, product.ID)
	logger := logging.WithContext(ctx, o.logger)
	result := Result{ProductID: product.ID}

	image, ok := product.PrimaryImage()
	if !ok {
		logger.Debug("product has no image", logging.String(logging.FieldDecision, string(DecisionNoImage)))
		return o.finish(result, DecisionNoImage)
	}

	fp := tracker.Fingerprint(image.ID, image.URL)
	if !o.tracker.ShouldProcess(product.ID, fp) {
		if !o.opts.RetryFailed || !o.tracker.ShouldRetry(product.ID, fp) {
			logger.Debug("image unchanged", logging.String(logging.FieldDecision, string(DecisionUnchanged)))
			return o.finish(result, DecisionUnchanged)
		}
		logger.Info("retrying failed product",
			logging.String(logging.FieldEventType, "retry_failed"),
			logging.String("fingerprint", fp))
	}

	if product.HasModel3D() {
		result.Status = tracker.StatusSkippedModelExists
		if err := o.tracker.RecordSkippedExisting(product.ID, fp); err != nil {
			result.Err = err
			o.logTrackerFailure(logger, err)
		}
		logger.Info("product already has a 3D model",
			logging.String(logging.FieldEventType, "model_exists"),
			logging.String(logging.FieldDecision, string(DecisionSkippedModelExists)),
			logging.String("title", product.Title))
		return o.finish(result, DecisionSkippedModelExists)
	}

	o.echo(ctx, logger, product.ID, string(tracker.StatusProcessing))
	attemptID := o.beginAttempt(ctx, logger, product, image.URL, fp)

	logger.Info("generating model",
		logging.String(logging.FieldEventType, "generation_started"),
		logging.String("title", product.Title),
		logging.String("image_url", image.URL))

	media, taskID, err := o.generateAndAttach(ctx, logger, product.ID, image.URL)
	if err != nil {
		if interrupted(ctx, err) {
			return o.interrupt(ctx, logger, result, attemptID, taskID, err)
		}
		return o.fail(ctx, logger, result, product, fp, attemptID, taskID, err)
	}

	result.Status = tracker.StatusReady
	result.MediaID = media.ID
	if recErr := o.tracker.RecordOutcome(product.ID, fp, tracker.Outcome{
		Status:  tracker.StatusReady,
		MediaID: media.ID,
		Title:   product.Title,
	}); recErr != nil {
		result.Err = recErr
		o.logTrackerFailure(logger, recErr)
	}
	o.echo(ctx, logger, product.ID, string(tracker.StatusReady))
	o.finishAttempt(ctx, logger, attemptID, history.Result{Status: string(tracker.StatusReady), MediaID: media.ID, TaskID: taskID})
	if notifyErr := o.notifier.NotifyAttached(ctx, product.Title, product.ID, media.ID); notifyErr != nil {
		logger.Debug("attach notification failed", logging.Error(notifyErr))
	}
	logger.Info("model attached",
		logging.String(logging.FieldEventType, "model_attached"),
		logging.String(logging.FieldDecision, string(DecisionAttached)),
		logging.String("title", product.Title),
		logging.String("media_id", media.ID),
		logging.String("media_status", media.Status))
	o.metrics.RecordOutcome(string(tracker.StatusReady))
	return o.finish(result, DecisionAttached)
}

// generateAndAttach runs the three remote stages and returns the new media.
func (o *Orchestrator) generateAndAttach(ctx context.Context, logger *slog.Logger, productID, imageURL string) (catalog.Media, string, error) {
	started := o.now()
	genCtx := services.WithStage(ctx, metrics.StageGenerate)
	asset, err := o.generator.Generate(genCtx, imageURL)
	o.metrics.ObserveStage(metrics.StageGenerate, o.now().Sub(started), err)
	if err != nil {
		return catalog.Media{}, "", fmt.Errorf("generate: %w", err)
	}
	logger.Info("model generated",
		logging.String("task_id", asset.TaskID),
		logging.Int("model_bytes", len(asset.Data)),
		logging.Duration("generation_duration", o.now().Sub(started)))

	media, err := o.uploadAndAttach(ctx, productID, asset.Data)
	return media, asset.TaskID, err
}

func (o *Orchestrator) uploadAndAttach(ctx context.Context, productID string, data []byte) (catalog.Media, error) {
	filename := o.opts.UploadFilename

	started := o.now()
	uploadCtx := services.WithStage(ctx, metrics.StageUpload)
	target, err := o.catalog.StageUpload(uploadCtx, filename, len(data))
	if err == nil {
		err = o.catalog.Upload(uploadCtx, target, filename, data)
	}
	o.metrics.ObserveStage(metrics.StageUpload, o.now().Sub(started), err)
	if err != nil {
		return catalog.Media{}, fmt.Errorf("upload: %w", err)
	}
	o.metrics.AddUploadedBytes(len(data))

	started = o.now()
	media, err := o.catalog.AttachModel(services.WithStage(ctx, metrics.StageAttach), productID, target.ResourceURL)
	o.metrics.ObserveStage(metrics.StageAttach, o.now().Sub(started), err)
	if err != nil {
		return catalog.Media{}, fmt.Errorf("attach: %w", err)
	}
	return media, nil
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, result Result, product catalog.Product, fp string, attemptID int64, taskID string, cause error) Result {
	status := failureStatus(cause)
	message := failureMessage(cause)
	result.Status = status
	result.Failure = cause

	logging.ErrorWithContext(logger, "product processing failed", "product_failed",
		logging.String("title", product.Title),
		logging.String("resolved_status", string(status)),
		logging.String("failure_kind", services.FailureKind(cause)),
		logging.String(logging.FieldErrorHint, failureHint(cause)),
		logging.Error(cause))

	if err := o.tracker.RecordOutcome(product.ID, fp, tracker.Outcome{
		Status: status,
		Error:  message,
		Title:  product.Title,
	}); err != nil {
		result.Err = err
		o.logTrackerFailure(logger, err)
	}
	o.echo(ctx, logger, product.ID, errorEcho(message, o.opts.ErrorMessageLimit))
	o.finishAttempt(ctx, logger, attemptID, history.Result{Status: string(status), Error: message, TaskID: taskID})
	if notifyErr := o.notifier.NotifyFailed(ctx, product.Title, product.ID, string(status), services.Truncate(message, o.opts.ErrorMessageLimit)); notifyErr != nil {
		logger.Debug("failure notification failed", logging.Error(notifyErr))
	}
	o.metrics.RecordOutcome(string(status))
	return o.finish(result, DecisionFailed)
}

// interrupted reports whether a stage error came from shutdown rather than a
// remote failure.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// interrupt closes the journal row and leaves the tracker entry as it was.
func (o *Orchestrator) interrupt(ctx context.Context, logger *slog.Logger, result Result, attemptID int64, taskID string, cause error) Result {
	result.Failure = cause
	logger.Warn("processing interrupted; product will be evaluated again",
		logging.String(logging.FieldEventType, "product_interrupted"),
		logging.String(logging.FieldDecision, string(DecisionInterrupted)),
		logging.Error(cause))
	o.finishAttempt(context.WithoutCancel(ctx), logger, attemptID, history.Result{
		Status: history.StatusInterrupted,
		Error:  failureMessage(cause),
		TaskID: taskID,
	})
	return o.finish(result, DecisionInterrupted)
}

func failureHint(err error) string {
	var userErrs *catalog.UserErrors
	if errors.As(err, &userErrs) {
		if userErrs.Hint != "" {
			return userErrs.Hint
		}
		return "catalog rejected the request; see the user errors above"
	}
	switch services.FailureKind(err) {
	case "timeout":
		return "raise generator.max_wait_seconds or check the generation dashboard"
	case "validation":
		return "remote response was malformed; inspect debug logs"
	default:
		return "check remote service status; the product is retried when its image changes"
	}
}

// echo writes the status metafield and swallows failures.
func (o *Orchestrator) echo(ctx context.Context, logger *slog.Logger, productID, value string) {
	if err := o.catalog.SetStatus(ctx, productID, value); err != nil {
		o.metrics.RecordEchoFailure()
		logging.WarnWithContext(logger, "status echo failed", "status_echo_failed",
			logging.String("status_value", value),
			logging.String(logging.FieldErrorHint, "check the access token has write_products scope"),
			logging.String(logging.FieldImpact, "catalog status metafield is stale; local state is unaffected"),
			logging.Error(err))
	}
}

func (o *Orchestrator) beginAttempt(ctx context.Context, logger *slog.Logger, product catalog.Product, imageURL, fp string) int64 {
	if o.journal == nil {
		return 0
	}
	runID, _ := services.RequestIDFromContext(ctx)
	id, err := o.journal.Begin(ctx, history.Attempt{
		RunID:       runID,
		ProductID:   product.ID,
		Title:       product.Title,
		Fingerprint: fp,
		ImageURL:    imageURL,
		Status:      string(tracker.StatusProcessing),
		StartedAt:   o.now(),
	})
	if err != nil {
		o.metrics.RecordJournalFailure()
		logger.Warn("journal begin failed", logging.Error(err))
		return 0
	}
	return id
}

func (o *Orchestrator) finishAttempt(ctx context.Context, logger *slog.Logger, id int64, res history.Result) {
	if o.journal == nil || id == 0 {
		return
	}
	if err := o.journal.Finish(ctx, id, res); err != nil {
		o.metrics.RecordJournalFailure()
		logger.Warn("journal finish failed", logging.Int64("attempt_id", id), logging.Error(err))
	}
}

func (o *Orchestrator) logTrackerFailure(logger *slog.Logger, err error) {
	logging.ErrorWithContext(logger, "state write failed", "state_write_failed",
		logging.String(logging.FieldErrorHint, "check free space and permissions on the state file directory"),
		logging.Error(err))
}

func (o *Orchestrator) finish(result Result, decision Decision) Result {
	result.Decision = decision
	o.metrics.RecordDecision(string(decision))
	return result
}
