package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldcap/internal/config"
)

const userAgent = "fieldcap/0.1.0"

// Service defines the notification surface exposed to the dispatch engine
// and CLI.
type Service interface {
	NotifyUploadFailed(ctx context.Context, supplierName, reason string) error
	NotifyAuthorizationRequired(ctx context.Context) error
	NotifyQueueDrained(ctx context.Context, succeeded, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		failures:      cfg.Notifications.Failures,
		authorization: cfg.Notifications.Authorization,
		queue:         cfg.Notifications.Queue,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	failures      bool
	authorization bool
	queue         bool
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, supplierName, reason string) error {
	if !n.failures {
		return nil
	}
	supplierName = strings.TrimSpace(supplierName)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	data := payload{
		title:    "Fieldcap - Upload Failed",
		message:  fmt.Sprintf("Capture for %s failed: %s", supplierName, reason),
		tags:     []string{"fieldcap", "upload", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAuthorizationRequired(ctx context.Context) error {
	if !n.authorization {
		return nil
	}
	data := payload{
		title:    "Fieldcap - Sign In Required",
		message:  "Uploads are paused until you sign in again",
		tags:     []string{"fieldcap", "auth", "required"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueDrained(ctx context.Context, succeeded, failed int, duration time.Duration) error {
	if !n.queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Fieldcap - Queue Drained"
		message = fmt.Sprintf("All %d captures uploaded in %s", succeeded, durationText)
	} else {
		title = "Fieldcap - Queue Drained (with errors)"
		message = fmt.Sprintf("%d captures uploaded, %d failed in %s", succeeded, failed, durationText)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"fieldcap", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Fieldcap - Test",
		message:  "Notification system test",
		tags:     []string{"fieldcap", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyUploadFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyAuthorizationRequired(context.Context) error        { return nil }
func (noopService) NotifyQueueDrained(context.Context, int, int, time.Duration) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
