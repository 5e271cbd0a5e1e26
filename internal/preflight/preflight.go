package preflight

import (
	"context"
	"path/filepath"

	"auto3d/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Probes are the remote calls used by RunAll. Nil probes are skipped.
type Probes struct {
	Catalog   ShopProber
	Generator BalanceProber
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, probes Probes) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", filepath.Dir(cfg.Paths.StateFile)),
		CheckStateDocument(cfg.Paths.StateFile),
		CheckWriterLock(cfg.LockPath()),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}
	if probes.Catalog != nil {
		results = append(results, CheckCatalog(ctx, probes.Catalog))
	}
	if probes.Generator != nil {
		results = append(results, CheckGenerator(ctx, probes.Generator))
	}
	results = append(results, CheckNotifications(cfg))
	return results
}

// Failed counts failing results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
