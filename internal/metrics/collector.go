// Package metrics exposes Prometheus instrumentation for the poll loop and
// the per-product pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "auto3d"

// Pipeline stage labels used with ObserveStage.
const (
	StageGenerate = "generate"
	StageUpload   = "upload"
	StageAttach   = "attach"
)

// Collector owns a private registry so tests and embedded servers never clash
// on the global one. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	decisions      *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	cycles         *prometheus.CounterVec
	echoFailures   prometheus.Counter
	tracked        *prometheus.GaugeVec
	lastCycle      prometheus.Gauge
	uploadedBytes  prometheus.Counter
	journalFailure prometheus.Counter
}

// New creates a collector with process and Go runtime metrics registered.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "products_evaluated_total",
				Help:      "Products evaluated by the pipeline, by decision",
			},
			[]string{"decision"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "outcomes_total",
				Help:      "Terminal statuses recorded for products",
			},
			[]string{"status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"stage", "result"},
		),
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "poll_cycles_total",
				Help:      "Poll cycles completed, by result",
			},
			[]string{"result"},
		),
		echoFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "status_echo_failures_total",
			Help:      "Best-effort status metafield writes that failed",
		}),
		tracked: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "tracked_products",
				Help:      "Products in the state document, by status",
			},
			[]string{"status"},
		),
		lastCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last completed poll cycle",
		}),
		uploadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Model bytes uploaded to staged targets",
		}),
		journalFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "journal_failures_total",
			Help:      "Attempt journal writes that failed",
		}),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordDecision counts one pipeline evaluation.
func (c *Collector) RecordDecision(decision string) {
	if c == nil {
		return
	}
	c.decisions.WithLabelValues(decision).Inc()
}

// RecordOutcome counts one recorded terminal status.
func (c *Collector) RecordOutcome(status string) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took and whether it succeeded.
func (c *Collector) ObserveStage(stage string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.stageDuration.WithLabelValues(stage, result).Observe(elapsed.Seconds())
}

// RecordCycle counts a poll cycle and stamps its completion time.
func (c *Collector) RecordCycle(at time.Time, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.cycles.WithLabelValues(result).Inc()
	c.lastCycle.Set(float64(at.Unix()))
}

// RecordEchoFailure counts a failed status metafield write.
func (c *Collector) RecordEchoFailure() {
	if c == nil {
		return
	}
	c.echoFailures.Inc()
}

// RecordJournalFailure counts a failed attempt journal write.
func (c *Collector) RecordJournalFailure() {
	if c == nil {
		return
	}
	c.journalFailure.Inc()
}

// AddUploadedBytes accumulates uploaded model sizes.
func (c *Collector) AddUploadedBytes(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.uploadedBytes.Add(float64(n))
}

// SetTracked replaces the per-status gauge values.
func (c *Collector) SetTracked(counts map[string]int) {
	if c == nil {
		return
	}
	c.tracked.Reset()
	for status, n := range counts {
		c.tracked.WithLabelValues(status).Set(float64(n))
	}
}
