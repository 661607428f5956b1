package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"veracity/internal/config"
	"veracity/internal/factcheck"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func newNtfyService(t *testing.T, endpoint string) Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = endpoint
	return NewService(&cfg)
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	svc := NewService(&cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop notification: %v", err)
	}
}

func TestNotifyCheckStarted(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := newNtfyService(t, server.URL)

	if err := svc.NotifyCheckStarted(context.Background(), 7, "https://example.com/story"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	requests := captured()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	if requests[0].title != "Veracity - Check Started" {
		t.Fatalf("unexpected title %q", requests[0].title)
	}
	if !strings.Contains(requests[0].body, "article 7") {
		t.Fatalf("unexpected body %q", requests[0].body)
	}
}

func TestNotifyCheckCompletedRoutesErrorRecords(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := newNtfyService(t, server.URL)

	record := factcheck.ErrorRecord(3, "job-3", "timeout", time.Now().UTC())
	if err := svc.NotifyCheckCompleted(context.Background(), 3, record); err != nil {
		t.Fatalf("notify: %v", err)
	}
	requests := captured()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	if requests[0].title != "Veracity - Check Unavailable" {
		t.Fatalf("error record should route to the failure notification, got %q", requests[0].title)
	}
	if requests[0].priority != "high" {
		t.Fatalf("unexpected priority %q", requests[0].priority)
	}
}

func TestNotifyCheckCompletedScoredRecord(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := newNtfyService(t, server.URL)

	record := &factcheck.Record{
		ArticleID:        4,
		JobID:            "job-4",
		Verdict:          factcheck.VerdictTrue,
		CredibilityScore: 92,
		ClaimsAnalyzed:   5,
	}
	if err := svc.NotifyCheckCompleted(context.Background(), 4, record); err != nil {
		t.Fatalf("notify: %v", err)
	}
	requests := captured()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	if !strings.Contains(requests[0].body, "score 92/100") || !strings.Contains(requests[0].body, "5 claims") {
		t.Fatalf("unexpected body %q", requests[0].body)
	}
}

func TestNotifySuppressedByConfig(t *testing.T) {
	server, captured := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Started = false
	cfg.Notifications.Errors = false
	svc := NewService(&cfg)

	if err := svc.NotifyCheckStarted(context.Background(), 1, "https://example.com"); err != nil {
		t.Fatalf("notify started: %v", err)
	}
	if err := svc.NotifyCheckFailed(context.Background(), 1, "timeout"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if got := captured(); len(got) != 0 {
		t.Fatalf("suppressed notifications still sent: %d", len(got))
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	svc := newNtfyService(t, server.URL)
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected ntfy error, got %v", err)
	}
}
