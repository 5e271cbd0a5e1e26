package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"auto3d/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "generate", "submit", "request rejected", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"generate", "submit", "request rejected", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrTimeout, "generate", "await", "", nil), "timeout"},
		{services.Wrap(services.ErrValidation, "stage", "", "bad target", nil), "validation"},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrNotFound, "", "", "", nil)), "not_found"},
		{services.Wrap(services.ErrExternalTool, "attach", "", "", nil), "external"},
		{errors.New("plain"), "transient"},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := services.Truncate("héllo wörld", 5); got != "héllo" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := services.Truncate("short", 120); got != "short" {
		t.Fatalf("expected unchanged message, got %q", got)
	}
	if got := services.Truncate("anything", 0); got != "anything" {
		t.Fatalf("expected zero limit to disable truncation, got %q", got)
	}
}
