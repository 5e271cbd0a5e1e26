package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"auto3d/internal/api"
	"auto3d/internal/history"
	"auto3d/internal/metrics"
	"auto3d/internal/tracker"
)

type fixture struct {
	state   *tracker.Store
	journal *history.Store
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	state, err := tracker.Open(filepath.Join(dir, "state.json"), nil)
	if err != nil {
		t.Fatalf("tracker.Open: %v", err)
	}
	journal, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })

	collector := metrics.New()
	collector.RecordDecision("attached")

	router := api.NewRouter(api.ServerConfig{
		State:     state,
		History:   journal,
		Metrics:   collector.Handler(),
		StartTime: time.Now().Add(-time.Minute),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &fixture{state: state, journal: journal, server: server}
}

func getJSON(t *testing.T, rawURL string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", rawURL, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", rawURL, err)
		}
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	if err := f.state.RecordOutcome("gid://shopify/Product/1", "fp", tracker.Outcome{Status: tracker.StatusReady}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	var health api.HealthResponse
	getJSON(t, f.server.URL+"/health", http.StatusOK, &health)
	if health.Status != "ok" || health.Tracked != 1 || health.UptimeSeconds < 59 {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.StateFile != f.state.Path() || health.History != f.journal.Path() {
		t.Fatalf("unexpected paths: %+v", health)
	}
}

func TestStateListAndFilter(t *testing.T) {
	f := newFixture(t)
	_ = f.state.RecordOutcome("gid://shopify/Product/1", "fp1", tracker.Outcome{Status: tracker.StatusReady, MediaID: "m1"})
	_ = f.state.RecordOutcome("gid://shopify/Product/2", "fp2", tracker.Outcome{Status: tracker.StatusFailed, Error: "boom"})

	var all api.StateListResponse
	getJSON(t, f.server.URL+"/api/state", http.StatusOK, &all)
	if len(all.Products) != 2 || all.Counts["ready"] != 1 || all.Counts["failed"] != 1 {
		t.Fatalf("unexpected state list: %+v", all)
	}

	var failed api.StateListResponse
	getJSON(t, f.server.URL+"/api/state?status=failed", http.StatusOK, &failed)
	if len(failed.Products) != 1 || failed.Products[0].Error != "boom" {
		t.Fatalf("unexpected filtered list: %+v", failed.Products)
	}
}

func TestStateShowAcceptsLegacyAndEscapedIDs(t *testing.T) {
	f := newFixture(t)
	_ = f.state.RecordOutcome("gid://shopify/Product/7", "fp7", tracker.Outcome{Status: tracker.StatusTimedOut})

	for _, id := range []string{"7", url.PathEscape("gid://shopify/Product/7")} {
		var entry api.StateEntry
		getJSON(t, f.server.URL+"/api/state/"+id, http.StatusOK, &entry)
		if entry.ProductID != "gid://shopify/Product/7" || entry.Status != "timed_out" || entry.Fingerprint != "fp7" {
			t.Fatalf("unexpected entry for %s: %+v", id, entry)
		}
	}

	var missing api.ErrorResponse
	getJSON(t, f.server.URL+"/api/state/99", http.StatusNotFound, &missing)
	if missing.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"gid://shopify/Product/1", "gid://shopify/Product/2", "gid://shopify/Product/1"} {
		attemptID, err := f.journal.Begin(ctx, history.Attempt{ProductID: id, Fingerprint: "fp"})
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if err := f.journal.Finish(ctx, attemptID, history.Result{Status: "ready"}); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}

	var resp api.HistoryResponse
	getJSON(t, f.server.URL+"/api/history?product=1", http.StatusOK, &resp)
	if len(resp.Attempts) != 2 || resp.Attempts[0].FinishedAt == "" {
		t.Fatalf("unexpected history: %+v", resp.Attempts)
	}

	getJSON(t, f.server.URL+"/api/history?limit=1", http.StatusOK, &resp)
	if len(resp.Attempts) != 1 {
		t.Fatalf("limit ignored: %+v", resp.Attempts)
	}

	getJSON(t, f.server.URL+"/api/history?limit=zero", http.StatusBadRequest, nil)
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "auto3d_products_evaluated_total") {
		t.Fatalf("metrics body missing counter")
	}
}

func TestRouterWithoutOptionalDeps(t *testing.T) {
	server := httptest.NewServer(api.NewRouter(api.ServerConfig{}))
	defer server.Close()

	var state api.StateListResponse
	getJSON(t, server.URL+"/api/state", http.StatusOK, &state)
	var hist api.HistoryResponse
	getJSON(t, server.URL+"/api/history", http.StatusOK, &hist)
	getJSON(t, server.URL+"/metrics", http.StatusNotFound, nil)
}

func TestServerServeAndShutdown(t *testing.T) {
	srv := api.NewServer("127.0.0.1:0", api.ServerConfig{})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var health api.HealthResponse
	getJSON(t, "http://"+srv.Addr()+"/health", http.StatusOK, &health)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}

	if api.NewServer("  ", api.ServerConfig{}) != nil {
		t.Fatal("empty bind should disable the server")
	}
}
