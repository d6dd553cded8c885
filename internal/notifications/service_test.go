package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fieldcap/internal/config"
	"fieldcap/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	message  string
}

func newCaptureServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			message:  string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
}

func newServiceConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Failures = true
	cfg.Notifications.Authorization = true
	cfg.Notifications.Queue = true
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUploadFailed(context.Background(), "Acme", "remote unavailable"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyUploadFailedFormatsMessage(t *testing.T) {
	var sink []captured
	server := newCaptureServer(t, &sink)
	defer server.Close()

	svc := notifications.NewService(newServiceConfig(server.URL))
	if err := svc.NotifyUploadFailed(context.Background(), "Acme Co", "http 503 after 120ms"); err != nil {
		t.Fatalf("NotifyUploadFailed failed: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink))
	}
	got := sink[0]
	if got.title != "Fieldcap - Upload Failed" || got.priority != "high" {
		t.Fatalf("unexpected headers: %#v", got)
	}
	if !strings.Contains(got.message, "Acme Co") || !strings.Contains(got.message, "503") {
		t.Fatalf("unexpected message: %q", got.message)
	}
}

func TestNotifyQueueDrainedVariants(t *testing.T) {
	var sink []captured
	server := newCaptureServer(t, &sink)
	defer server.Close()

	svc := notifications.NewService(newServiceConfig(server.URL))
	ctx := context.Background()
	if err := svc.NotifyQueueDrained(ctx, 4, 0, 90*time.Second); err != nil {
		t.Fatalf("NotifyQueueDrained failed: %v", err)
	}
	if err := svc.NotifyQueueDrained(ctx, 3, 2, time.Minute); err != nil {
		t.Fatalf("NotifyQueueDrained failed: %v", err)
	}
	if len(sink) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sink))
	}
	if !strings.Contains(sink[0].message, "All 4 captures uploaded in 1m30s") {
		t.Fatalf("unexpected message: %q", sink[0].message)
	}
	if !strings.Contains(sink[1].title, "with errors") || !strings.Contains(sink[1].message, "2 failed") {
		t.Fatalf("unexpected failure variant: %#v", sink[1])
	}
}

func TestEventGatesSuppressNotifications(t *testing.T) {
	var sink []captured
	server := newCaptureServer(t, &sink)
	defer server.Close()

	cfg := newServiceConfig(server.URL)
	cfg.Notifications.Failures = false
	cfg.Notifications.Authorization = false
	svc := notifications.NewService(cfg)

	ctx := context.Background()
	if err := svc.NotifyUploadFailed(ctx, "Acme", "x"); err != nil {
		t.Fatalf("NotifyUploadFailed failed: %v", err)
	}
	if err := svc.NotifyAuthorizationRequired(ctx); err != nil {
		t.Fatalf("NotifyAuthorizationRequired failed: %v", err)
	}
	if len(sink) != 0 {
		t.Fatalf("expected gated notifications to be suppressed, got %d", len(sink))
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("expected test notification to bypass gates, got %d", len(sink))
	}
}

func TestSendSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	svc := notifications.NewService(newServiceConfig(server.URL))
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected ntfy error, got %v", err)
	}
}
