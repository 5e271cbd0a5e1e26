package testsupport

import (
	"testing"

	"auto3d/internal/config"
	"auto3d/internal/history"
	"auto3d/internal/tracker"
)

// MustOpenTracker opens the state document named by cfg.
func MustOpenTracker(t testing.TB, cfg *config.Config) *tracker.Store {
	t.Helper()
	store, err := tracker.Open(cfg.Paths.StateFile, nil)
	if err != nil {
		t.Fatalf("open tracker: %v", err)
	}
	return store
}

// MustOpenHistory opens the attempt journal named by cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
