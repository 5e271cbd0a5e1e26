package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"auto3d/internal/catalog"
	"auto3d/internal/config"
	"auto3d/internal/generator"
	"auto3d/internal/history"
	"auto3d/internal/logging"
	"auto3d/internal/metrics"
	"auto3d/internal/notifications"
	"auto3d/internal/pipeline"
	"auto3d/internal/poller"
	"auto3d/internal/preflight"
	"auto3d/internal/tracker"
)

// writer holds everything a state-mutating command needs. It owns the writer
// lock for its lifetime.
type writer struct {
	cfg          *config.Config
	logger       *slog.Logger
	lock         *tracker.Lock
	state        *tracker.Store
	journal      *history.Store
	metrics      *metrics.Collector
	catalog      *catalog.Client
	generator    *generator.Client
	notifier     notifications.Service
	orchestrator *pipeline.Orchestrator
	poller       *poller.Poller
}

func (c *commandContext) openWriter(ctx context.Context) (*writer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	if check := preflight.CheckDirectoryAccess("State directory", filepath.Dir(cfg.Paths.StateFile)); !check.Passed {
		return nil, fmt.Errorf("state directory unusable: %s", check.Detail)
	}

	lock, err := tracker.AcquireLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	w := &writer{cfg: cfg, lock: lock, logger: logging.NewNop()}

	// Rotation requires the writer lock.
	if _, err := logging.RotateLog(cfg.Paths.LogDir, logging.RotateBytes, time.Now()); err != nil {
		w.Close()
		return nil, err
	}
	w.logger, err = logging.NewFromConfig(cfg)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.PruneLogs(w.logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())

	if err := w.open(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *writer) open(ctx context.Context) error {
	cfg := w.cfg
	var err error

	w.state, err = tracker.Open(cfg.Paths.StateFile, w.logger)
	if err != nil {
		return fmt.Errorf("open state document: %w", err)
	}

	if cfg.Paths.HistoryDB != "" {
		w.journal, err = history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if n, err := w.journal.MarkInterrupted(ctx); err != nil {
			logging.WarnWithContext(w.logger, "history cleanup failed", "history_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on "+cfg.Paths.HistoryDB),
				logging.String(logging.FieldImpact, "stale attempts keep their processing status"),
			)
		} else if n > 0 {
			w.logger.Info("marked interrupted attempts",
				logging.Int64("count", n),
				logging.String(logging.FieldEventType, "history_interrupted"),
			)
		}
	}

	w.metrics = metrics.New()
	w.notifier = notifications.NewService(cfg)

	w.catalog, err = newCatalogClient(cfg, w.logger)
	if err != nil {
		return err
	}
	w.generator, err = newGeneratorClient(cfg, w.logger)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Catalog:   w.catalog,
		Generator: w.generator,
		Tracker:   w.state,
		Metrics:   w.metrics,
		Notifier:  w.notifier,
		Logger:    w.logger,
	}
	if w.journal != nil {
		deps.Journal = w.journal
	}
	w.orchestrator = pipeline.New(deps, pipeline.Options{
		UploadFilename:    cfg.Workflow.UploadFilename,
		RetryFailed:       cfg.Workflow.RetryFailed,
		ErrorMessageLimit: cfg.Workflow.ErrorMessageLimit,
	})
	w.poller = poller.New(w.catalog, w.orchestrator, poller.Options{
		PageSize: cfg.Catalog.PageSize,
		Interval: cfg.PollInterval(),
		Logger:   w.logger,
		Metrics:  w.metrics,
		Counter:  w.state,
	})
	return nil
}

// Close flushes state, closes the journal and releases the lock.
func (w *writer) Close() {
	if w == nil {
		return
	}
	if w.state != nil {
		if err := w.state.Flush(); err != nil {
			logging.ErrorWithContext(w.logger, "state flush failed", "state_flush_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on "+w.cfg.Paths.StateFile),
				logging.String(logging.FieldImpact, "latest product outcomes may be lost"),
			)
		}
	}
	if w.journal != nil {
		_ = w.journal.Close()
	}
	if err := w.lock.Release(); err != nil {
		w.logger.Warn("release writer lock", logging.Error(err))
	}
}

func newCatalogClient(cfg *config.Config, logger *slog.Logger) (*catalog.Client, error) {
	client, err := catalog.New(cfg.Catalog.Shop, cfg.Catalog.AccessToken,
		catalog.WithEndpoint(cfg.CatalogEndpoint()),
		catalog.WithAPIVersion(cfg.Catalog.APIVersion),
		catalog.WithNamespace(cfg.Catalog.MetafieldNamespace),
		catalog.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Catalog.RequestTimeout) * time.Second}),
		catalog.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}
	return client, nil
}

func newGeneratorClient(cfg *config.Config, logger *slog.Logger) (*generator.Client, error) {
	client, err := generator.New(cfg.Generator.APIKey,
		generator.WithBaseURL(cfg.Generator.BaseURL),
		generator.WithPollInterval(cfg.GeneratorPollInterval()),
		generator.WithMaxWait(cfg.GeneratorMaxWait()),
		generator.WithAssetFormat(cfg.Generator.AssetFormat),
		generator.WithTexture(cfg.Generator.EnableTexture),
		generator.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Generator.RequestTimeout) * time.Second}),
		generator.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("generator client: %w", err)
	}
	return client, nil
}
