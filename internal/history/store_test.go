package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"auto3d/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, history.Attempt{
		RunID:       "run-1",
		ProductID:   "gid://shopify/Product/1",
		Title:       "Chair",
		Fingerprint: "abc",
		ImageURL:    "https://cdn.example/chair.png",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	pending, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pending.Status != "processing" || pending.Finished() || pending.RunID != "run-1" {
		t.Fatalf("unexpected pending attempt: %+v", pending)
	}

	if err := store.Finish(ctx, id, history.Result{Status: "ready", MediaID: "gid://shopify/Model3d/9", TaskID: "task-1"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	done, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if done.Status != "ready" || done.MediaID != "gid://shopify/Model3d/9" || done.TaskID != "task-1" {
		t.Fatalf("unexpected finished attempt: %+v", done)
	}
	if !done.Finished() || done.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %+v", done)
	}
}

func TestBeginValidatesInput(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Begin(ctx, history.Attempt{Fingerprint: "x"}); err == nil {
		t.Fatal("expected error without product id")
	}
	if _, err := store.Begin(ctx, history.Attempt{ProductID: "p"}); err == nil {
		t.Fatal("expected error without fingerprint")
	}
}

func TestFinishUnknownAttempt(t *testing.T) {
	store := openStore(t)
	err := store.Finish(context.Background(), 42, history.Result{Status: "failed"})
	if !errors.Is(err, history.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), 42); !errors.Is(err, history.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound from Get, got %v", err)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	seed := []struct {
		product string
		status  string
	}{
		{"p1", "ready"},
		{"p2", "failed"},
		{"p1", "failed"},
		{"p3", "timed_out"},
	}
	for _, s := range seed {
		id, err := store.Begin(ctx, history.Attempt{ProductID: s.product, Fingerprint: "fp"})
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if err := store.Finish(ctx, id, history.Result{Status: s.status, Error: "boom"}); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].ProductID != "p3" || all[3].ProductID != "p1" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	p1, err := store.List(ctx, history.Filter{ProductID: "p1"})
	if err != nil {
		t.Fatalf("List product: %v", err)
	}
	if len(p1) != 2 || p1[0].Status != "failed" {
		t.Fatalf("unexpected product filter result: %+v", p1)
	}

	failed, err := store.List(ctx, history.Filter{Status: "failed", Limit: 1})
	if err != nil {
		t.Fatalf("List status: %v", err)
	}
	if len(failed) != 1 || failed[0].ProductID != "p1" {
		t.Fatalf("unexpected status filter result: %+v", failed)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts["failed"] != 2 || counts["ready"] != 1 || counts["timed_out"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestMarkInterrupted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	open, err := store.Begin(ctx, history.Attempt{ProductID: "p1", Fingerprint: "fp", StartedAt: time.Now().Add(-time.Minute)})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	closed, err := store.Begin(ctx, history.Attempt{ProductID: "p2", Fingerprint: "fp"})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, closed, history.Result{Status: "ready"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	changed, err := store.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("MarkInterrupted: %v", err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
	got, err := store.Get(ctx, open)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusInterrupted || !got.Finished() {
		t.Fatalf("unexpected interrupted attempt: %+v", got)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Begin(context.Background(), history.Attempt{ProductID: "p1", Fingerprint: "fp"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after reopen, got %d", len(rows))
	}
}
