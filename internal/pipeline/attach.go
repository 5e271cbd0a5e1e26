package pipeline

import (
	"context"
	"errors"

	"auto3d/internal/catalog"
	"auto3d/internal/history"
	"auto3d/internal/logging"
	"auto3d/internal/services"
	"auto3d/internal/tracker"
)

// AttachFile uploads an existing model for product without generation and
// records it as ready under the product's current image fingerprint. Unlike
// Process, failures are returned so the caller can exit non-zero; the failure
// is still recorded in tracked state unless the context was cancelled.
func (o *Orchestrator) AttachFile(ctx context.Context, product catalog.Product, data []byte) (Result, error) {
	ctx = services.WithProductID(ctx, product.ID)
	logger := logging.WithContext(ctx, o.logger)
	result := Result{ProductID: product.ID}
	if len(data) == 0 {
		return result, errors.New("attach file: model data is empty")
	}

	var fp, imageURL string
	if image, ok := product.PrimaryImage(); ok {
		fp = tracker.Fingerprint(image.ID, image.URL)
		imageURL = image.URL
	}

	o.echo(ctx, logger, product.ID, string(tracker.StatusProcessing))
	attemptID := o.beginAttempt(ctx, logger, product, imageURL, nonEmpty(fp, "manual"))

	logger.Info("attaching local model",
		logging.String(logging.FieldEventType, "manual_attach"),
		logging.String("title", product.Title),
		logging.Int("model_bytes", len(data)))

	media, err := o.uploadAndAttach(ctx, product.ID, data)
	if err != nil {
		if interrupted(ctx, err) {
			return o.interrupt(ctx, logger, result, attemptID, "", err), err
		}
		result = o.fail(ctx, logger, result, product, fp, attemptID, "", err)
		return result, err
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
	o.finishAttempt(ctx, logger, attemptID, history.Result{Status: string(tracker.StatusReady), MediaID: media.ID})
	o.metrics.RecordOutcome(string(tracker.StatusReady))
	logger.Info("model attached",
		logging.String(logging.FieldEventType, "model_attached"),
		logging.String("media_id", media.ID),
		logging.String("media_status", media.Status))
	return o.finish(result, DecisionAttached), result.Err
}

func nonEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
