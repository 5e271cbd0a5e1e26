package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"auto3d/internal/pipeline"
	"auto3d/internal/poller"
	"auto3d/internal/preflight"
	"auto3d/internal/tracker"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("writer lock", statusError, "held", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Writer Lock:", "[ERROR] held")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineKeepsAcronyms(t *testing.T) {
	got := renderStatusLine("Catalog API", statusOK, "", false)
	if !strings.Contains(got, "Catalog API:") || !strings.HasSuffix(got, "[OK]") {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Status", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestTrackerStatusKind(t *testing.T) {
	cases := map[tracker.Status]statusKind{
		tracker.StatusReady:              statusOK,
		tracker.StatusFailed:             statusError,
		tracker.StatusTimedOut:           statusError,
		tracker.StatusSkippedModelExists: statusWarn,
		tracker.StatusProcessing:         statusInfo,
	}
	for status, want := range cases {
		if got := trackerStatusKind(status); got != want {
			t.Fatalf("%s: got %v want %v", status, got, want)
		}
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "State document", Passed: true, Detail: "3 products tracked"},
		{Name: "Generation API", Detail: "auth failed"},
	}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] 3 products tracked") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] auth failed") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestPrintSummarySortsDecisions(t *testing.T) {
	var b strings.Builder
	printSummary(&b, poller.Summary{
		RunID:     "run-1",
		Evaluated: 3,
		Decisions: map[pipeline.Decision]int{
			pipeline.DecisionUnchanged: 2,
			pipeline.DecisionAttached:  1,
		},
	})
	requireContains(t, b.String(), "Cycle run-1: 3 products evaluated")
	requireContains(t, b.String(), "Decisions: attached=1, unchanged=2")
}

func TestRenderTableWrapsLongCells(t *testing.T) {
	out := renderTable([]tableColumn{{Header: "ID", Align: alignRight}, {Header: "Error", MaxWidth: 10}},
		[][]string{{"1", strings.Repeat("x", 25)}})
	if strings.Contains(out, strings.Repeat("x", 25)) {
		t.Fatalf("expected long cell to wrap:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty table for no columns")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
