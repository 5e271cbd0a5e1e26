package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounters(t *testing.T) {
	c := New()

	c.RecordDecision("attached")
	c.RecordDecision("attached")
	c.RecordDecision("unchanged")
	c.RecordOutcome("ready")
	c.RecordEchoFailure()
	c.RecordJournalFailure()
	c.AddUploadedBytes(2048)
	c.AddUploadedBytes(-1)

	if got := testutil.ToFloat64(c.decisions.WithLabelValues("attached")); got != 2 {
		t.Fatalf("attached decisions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.decisions.WithLabelValues("unchanged")); got != 1 {
		t.Fatalf("unchanged decisions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.outcomes.WithLabelValues("ready")); got != 1 {
		t.Fatalf("ready outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.echoFailures); got != 1 {
		t.Fatalf("echo failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.journalFailure); got != 1 {
		t.Fatalf("journal failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.uploadedBytes); got != 2048 {
		t.Fatalf("uploaded bytes = %v, want 2048", got)
	}
}

func TestCollectorCycleAndStage(t *testing.T) {
	c := New()
	at := time.Unix(1_700_000_000, 0)

	c.RecordCycle(at, nil)
	c.RecordCycle(at.Add(time.Second), errors.New("boom"))
	c.ObserveStage(StageGenerate, 90*time.Second, nil)
	c.ObserveStage(StageUpload, time.Second, errors.New("denied"))

	if got := testutil.ToFloat64(c.cycles.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok cycles = %v", got)
	}
	if got := testutil.ToFloat64(c.cycles.WithLabelValues("error")); got != 1 {
		t.Fatalf("error cycles = %v", got)
	}
	if got := testutil.ToFloat64(c.lastCycle); got != float64(at.Unix()+1) {
		t.Fatalf("last cycle = %v", got)
	}
	if got := testutil.CollectAndCount(c.stageDuration); got != 2 {
		t.Fatalf("stage series = %d, want 2", got)
	}
}

func TestSetTrackedReplacesSeries(t *testing.T) {
	c := New()
	c.SetTracked(map[string]int{"ready": 3, "failed": 1})
	c.SetTracked(map[string]int{"ready": 4})

	if got := testutil.CollectAndCount(c.tracked); got != 1 {
		t.Fatalf("tracked series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(c.tracked.WithLabelValues("ready")); got != 4 {
		t.Fatalf("ready gauge = %v, want 4", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordDecision("x")
	c.RecordOutcome("x")
	c.ObserveStage("x", time.Second, nil)
	c.RecordCycle(time.Now(), nil)
	c.RecordEchoFailure()
	c.RecordJournalFailure()
	c.AddUploadedBytes(10)
	c.SetTracked(map[string]int{"ready": 1})
	if c.Registry() != nil {
		t.Fatal("nil collector should have nil registry")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordDecision("attached")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `auto3d_products_evaluated_total{decision="attached"} 1`) {
		t.Fatalf("metrics output missing decision counter:\n%s", rec.Body.String())
	}
}
