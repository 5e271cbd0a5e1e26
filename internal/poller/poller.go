// Package poller drives the orchestrator: a fixed-interval loop over the most
// recently updated products, and single-product runs.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"auto3d/internal/catalog"
	"auto3d/internal/logging"
	"auto3d/internal/metrics"
	"auto3d/internal/pipeline"
	"auto3d/internal/services"
	"auto3d/internal/tracker"
)

const (
	defaultPageSize = 15
	defaultInterval = 5 * time.Second
)

// Lister reads candidate products from the catalog.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// Processor evaluates one product.
type Processor interface {
	Process(ctx context.Context, product catalog.Product) pipeline.Result
}

// StatusCounter reports tracked products per status for the metrics gauge.
type StatusCounter interface {
	CountByStatus() map[tracker.Status]int
}

// Options configure the loop.
type Options struct {
	PageSize int
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Counter  StatusCounter
}

// Summary describes one completed cycle.
type Summary struct {
	RunID     string
	Evaluated int
	Decisions map[pipeline.Decision]int
	Errors    int
	Duration  time.Duration
}

// Poller runs poll cycles.
type Poller struct {
	lister    Lister
	processor Processor
	pageSize  int
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Collector
	counter   StatusCounter
	newRunID  func() string
	now       func() time.Time
}

// New constructs a poller.
func New(lister Lister, processor Processor, opts Options) *Poller {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Poller{
		lister:    lister,
		processor: processor,
		pageSize:  opts.PageSize,
		interval:  opts.Interval,
		logger:    logging.NewComponentLogger(opts.Logger, "poller"),
		metrics:   opts.Metrics,
		counter:   opts.Counter,
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
}

// Run executes cycles until ctx is cancelled. Cycle errors are logged and the
// loop continues; cancellation returns nil.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poll loop started",
		logging.String(logging.FieldEventType, "poll_loop_start"),
		logging.Int("page_size", p.pageSize),
		logging.Duration("interval", p.interval))

	for {
		if _, err := p.RunCycle(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(p.logger, "poll cycle failed", "poll_cycle_failed",
				logging.String(logging.FieldErrorHint, "check catalog credentials and network; next cycle retries"),
				logging.String(logging.FieldImpact, "products were not evaluated this cycle"),
				logging.Error(err))
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("poll loop stopped", logging.String(logging.FieldEventType, "poll_loop_stop"))
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle lists recent products and processes each in order.
func (p *Poller) RunCycle(ctx context.Context) (Summary, error) {
	started := p.now()
	summary := Summary{RunID: p.newRunID(), Decisions: make(map[pipeline.Decision]int)}
	ctx = services.WithRequestID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, p.logger)

	products, err := p.lister.ListRecent(ctx, p.pageSize)
	if err != nil {
		summary.Duration = p.now().Sub(started)
		p.metrics.RecordCycle(p.now(), err)
		return summary, fmt.Errorf("list products: %w", err)
	}

	for _, product := range products {
		if ctx.Err() != nil {
			break
		}
		result := p.processor.Process(ctx, product)
		summary.Evaluated++
		summary.Decisions[result.Decision]++
		if result.Err != nil || result.Decision == pipeline.DecisionFailed {
			summary.Errors++
		}
	}
	summary.Duration = p.now().Sub(started)
	p.metrics.RecordCycle(p.now(), nil)
	p.refreshTracked()

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "poll_cycle_complete"),
		logging.Int("products_listed", len(products)),
		logging.Int("attached", summary.Decisions[pipeline.DecisionAttached]),
		logging.Int("failed", summary.Decisions[pipeline.DecisionFailed]),
		logging.Duration("cycle_duration", summary.Duration),
	}
	if summary.Decisions[pipeline.DecisionAttached]+summary.Decisions[pipeline.DecisionFailed] > 0 {
		logger.Info("poll cycle complete", logging.Args(attrs...)...)
	} else {
		logger.Debug("poll cycle complete", logging.Args(attrs...)...)
	}
	return summary, ctx.Err()
}

// ProcessOne fetches a single product by id and processes it. A missing
// product returns an error wrapping catalog.ErrProductNotFound.
func (p *Poller) ProcessOne(ctx context.Context, productID string) (pipeline.Result, error) {
	ctx = services.WithRequestID(ctx, p.newRunID())
	product, err := p.lister.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return pipeline.Result{ProductID: productID}, err
		}
		return pipeline.Result{ProductID: productID}, fmt.Errorf("get product: %w", err)
	}
	result := p.processor.Process(ctx, product)
	p.refreshTracked()
	return result, nil
}

func (p *Poller) refreshTracked() {
	if p.counter == nil || p.metrics == nil {
		return
	}
	counts := p.counter.CountByStatus()
	labels := make(map[string]int, len(counts))
	for status, n := range counts {
		labels[string(status)] = n
	}
	p.metrics.SetTracked(labels)
}
