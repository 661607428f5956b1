package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veracity/internal/config"
	"veracity/internal/factcheck"
)

const userAgent = "Veracity/0.1.0"

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyCheckStarted(ctx context.Context, articleID int64, url string) error
	NotifyCheckCompleted(ctx context.Context, articleID int64, record *factcheck.Record) error
	NotifyCheckFailed(ctx context.Context, articleID int64, reason string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
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
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		started:   cfg.Notifications.Started,
		completed: cfg.Notifications.Completed,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	started   bool
	completed bool
	errors    bool
}

func (n *ntfyService) NotifyCheckStarted(ctx context.Context, articleID int64, url string) error {
	if !n.started {
		return nil
	}
	data := payload{
		title:   "Veracity - Check Started",
		message: fmt.Sprintf("Fact-checking article %d: %s", articleID, strings.TrimSpace(url)),
		tags:    []string{"veracity", "check", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCheckCompleted(ctx context.Context, articleID int64, record *factcheck.Record) error {
	if !n.completed || record == nil {
		return nil
	}
	if record.Errored() {
		return n.NotifyCheckFailed(ctx, articleID, record.Summary)
	}
	data := payload{
		title: "Veracity - Check Complete",
		message: fmt.Sprintf("Article %d: %s (score %d/100, %d claims)",
			articleID, record.Verdict.Display(), record.CredibilityScore, record.ClaimsAnalyzed),
		tags: []string{"veracity", "check", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCheckFailed(ctx context.Context, articleID int64, reason string) error {
	if !n.errors {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Veracity - Check Unavailable",
		message:  fmt.Sprintf("Article %d: fact-check unavailable (%s)", articleID, reason),
		tags:     []string{"veracity", "check", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Veracity - Error",
		message:  builder.String(),
		tags:     []string{"veracity", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Veracity - Test",
		message:  "Notification system test",
		tags:     []string{"veracity", "test"},
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

func (noopService) NotifyCheckStarted(context.Context, int64, string) error { return nil }
func (noopService) NotifyCheckCompleted(context.Context, int64, *factcheck.Record) error {
	return nil
}
func (noopService) NotifyCheckFailed(context.Context, int64, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
