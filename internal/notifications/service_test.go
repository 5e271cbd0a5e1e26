package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"auto3d/internal/config"
	"auto3d/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyAttached(context.Background(), "Chair", "gid://shopify/Product/1", "m1"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

type capture struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *capture) {
	t.Helper()
	captured := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		captured.calls++
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		captured.body = string(body)
		if status >= 300 {
			http.Error(w, "topic denied", status)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "attached",
			send: func(s notifications.Service) error {
				return s.NotifyAttached(context.Background(), "Oak Chair", "gid://shopify/Product/7", "gid://shopify/Model3d/9")
			},
			expectTitle:   "auto3d - Model Attached",
			expectMessage: "3D model attached: Oak Chair (gid://shopify/Product/7)\nMedia: gid://shopify/Model3d/9",
			expectTags:    "auto3d,model,attached",
		},
		{
			name: "timed out",
			send: func(s notifications.Service) error {
				return s.NotifyFailed(context.Background(), "", "gid://shopify/Product/7", "timed_out", "task still IN_PROGRESS")
			},
			expectTitle:    "auto3d - Generation Failed",
			expectMessage:  "Generation timed out: gid://shopify/Product/7\ntask still IN_PROGRESS",
			expectTags:     "auto3d,model,timed_out",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("catalog unreachable"), "poll cycle")
			},
			expectTitle:    "auto3d - Error",
			expectMessage:  "Error during poll cycle: catalog unreachable",
			expectTags:     "auto3d,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "auto3d - Test",
			expectMessage:  "Notification system test",
			expectTags:     "auto3d,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, captured := newNtfyServer(t, http.StatusOK)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server, captured := newNtfyServer(t, http.StatusOK)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Attached = false
	cfg.Notifications.Failed = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyAttached(context.Background(), "t", "p", "m"); err != nil {
		t.Fatalf("NotifyAttached: %v", err)
	}
	if err := svc.NotifyFailed(context.Background(), "t", "p", "failed", "boom"); err != nil {
		t.Fatalf("NotifyFailed: %v", err)
	}
	if captured.calls != 0 {
		t.Fatalf("expected suppressed notifications, got %d calls", captured.calls)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusForbidden)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic denied") {
		t.Fatalf("expected 403 error with body, got %v", err)
	}
}
