package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"auto3d/internal/config"
)

const (
	userAgent     = "auto3d/0.1.0"
	defaultServer = "https://ntfy.sh/"
)

// Service defines the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyAttached(ctx context.Context, title, productID, mediaID string) error
	NotifyFailed(ctx context.Context, title, productID, status, message string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topicEndpoint(topic),
		client:   &http.Client{Timeout: timeout},
		attached: cfg.Notifications.Attached,
		failed:   cfg.Notifications.Failed,
	}
}

func topicEndpoint(topic string) string {
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return defaultServer + strings.TrimPrefix(topic, "/")
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	attached bool
	failed   bool
}

func displayName(title, productID string) string {
	title = strings.TrimSpace(title)
	productID = strings.TrimSpace(productID)
	switch {
	case title != "" && productID != "":
		return fmt.Sprintf("%s (%s)", title, productID)
	case title != "":
		return title
	default:
		return productID
	}
}

func (n *ntfyService) NotifyAttached(ctx context.Context, title, productID, mediaID string) error {
	if !n.attached {
		return nil
	}
	message := fmt.Sprintf("3D model attached: %s", displayName(title, productID))
	if mediaID = strings.TrimSpace(mediaID); mediaID != "" {
		message = fmt.Sprintf("%s\nMedia: %s", message, mediaID)
	}
	return n.send(ctx, payload{
		title:   "auto3d - Model Attached",
		message: message,
		tags:    []string{"auto3d", "model", "attached"},
	})
}

func (n *ntfyService) NotifyFailed(ctx context.Context, title, productID, status, message string) error {
	if !n.failed {
		return nil
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "failed"
	}
	body := fmt.Sprintf("Generation %s: %s", strings.ReplaceAll(status, "_", " "), displayName(title, productID))
	if message = strings.TrimSpace(message); message != "" {
		body = fmt.Sprintf("%s\n%s", body, message)
	}
	return n.send(ctx, payload{
		title:    "auto3d - Generation Failed",
		message:  body,
		tags:     []string{"auto3d", "model", status},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "auto3d - Error",
		message:  builder.String(),
		tags:     []string{"auto3d", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "auto3d - Test",
		message:  "Notification system test",
		tags:     []string{"auto3d", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAttached(context.Context, string, string, string) error       { return nil }
func (noopService) NotifyFailed(context.Context, string, string, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
