package daemon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"veracity/internal/api"
	"veracity/internal/config"
	"veracity/internal/factcheck"
	"veracity/internal/logging"
	"veracity/internal/notifications"
	"veracity/internal/orchestrator"
	"veracity/internal/services/verifier"
	"veracity/internal/testsupport"
)

// stubVerifier keeps checks pending forever unless finish is set, which is
// enough for exercising the daemon surface.
type stubVerifier struct {
	mu      sync.Mutex
	finish  bool
	submits int
}

func (s *stubVerifier) Submit(ctx context.Context, url, mode string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	return "job-stub", nil
}

func (s *stubVerifier) GetStatus(ctx context.Context, jobID string) (verifier.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := verifier.StatusQueued
	if s.finish {
		status = verifier.StatusFinished
	}
	return verifier.JobStatus{JobID: jobID, Status: status}, nil
}

func (s *stubVerifier) GetResult(ctx context.Context, jobID string) (*verifier.Result, error) {
	return &verifier.Result{ValidationResults: []verifier.ValidationResult{{
		Claim:            "claim",
		ValidationOutput: verifier.ValidationOutput{Verdict: "TRUE", Confidence: 1.0},
	}}}, nil
}

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*Daemon, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	client := &stubVerifier{}
	orc := orchestrator.New(cfg, st, client, notifications.NewService(cfg), logging.NewNop())

	d, err := New(cfg, st, orc, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, cfg
}

func startDaemon(t *testing.T, d *Daemon) {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(d.Stop)
}

func apiClient(t *testing.T, d *Daemon, token string) *api.Client {
	t.Helper()
	if d.api == nil || d.api.listener == nil {
		t.Fatal("api server not listening")
	}
	return api.NewClient(d.api.listener.Addr().String(), token)
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	first, cfg := newTestDaemon(t)
	startDaemon(t, first)

	st := testsupport.MustOpenStore(t, cfg)
	orc := orchestrator.New(cfg, st, &stubVerifier{}, notifications.NewService(cfg), logging.NewNop())
	second, err := New(cfg, st, orc, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	err = second.Start(context.Background())
	if err == nil {
		second.Stop()
		t.Fatal("expected second daemon start to fail")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected error: %v", err)
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("start after lock release: %v", err)
	}
	second.Stop()
}

func TestDaemonStatus(t *testing.T) {
	d, _ := newTestDaemon(t)
	if d.Status().Running {
		t.Fatal("daemon should not report running before start")
	}

	startDaemon(t, d)
	status := d.Status()
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.PID == 0 {
		t.Fatal("expected pid")
	}
	if status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("missing paths in status: %+v", status)
	}
	if len(status.ActiveJobs) != 0 {
		t.Fatalf("expected no active jobs, got %d", len(status.ActiveJobs))
	}
}

func TestDaemonAddArticleRequiresURL(t *testing.T) {
	d, _ := newTestDaemon(t)
	if _, err := d.AddArticle(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for blank url")
	}
}

func TestAPIStatusAndArticles(t *testing.T) {
	d, _ := newTestDaemon(t)
	startDaemon(t, d)
	client := apiClient(t, d, "")

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running {
		t.Fatal("api status should report running")
	}

	added, err := client.AddArticle(context.Background(), "https://example.com/story", "A Story")
	if err != nil {
		t.Fatalf("add article: %v", err)
	}
	if added.ID == 0 || added.URL != "https://example.com/story" {
		t.Fatalf("unexpected article: %+v", added)
	}
	if added.Title != "A Story" {
		t.Fatalf("unexpected title %q", added.Title)
	}

	articles, err := client.Articles(context.Background())
	if err != nil {
		t.Fatalf("list articles: %v", err)
	}
	if len(articles) != 1 || articles[0].ID != added.ID {
		t.Fatalf("unexpected article list: %+v", articles)
	}
}

func TestAPISubmitCheckLifecycle(t *testing.T) {
	d, _ := newTestDaemon(t)
	startDaemon(t, d)
	client := apiClient(t, d, "")

	article, err := client.AddArticle(context.Background(), "https://example.com/story", "")
	if err != nil {
		t.Fatalf("add article: %v", err)
	}

	jobID, err := client.SubmitCheck(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("submit check: %v", err)
	}
	if jobID != "job-stub" {
		t.Fatalf("unexpected job id %q", jobID)
	}

	// The stub never finishes, so the check stays pending.
	if _, err := client.GetCheck(context.Background(), article.ID); !errors.Is(err, api.ErrPending) {
		t.Fatalf("expected pending check, got %v", err)
	}

	jobList, err := client.Jobs(context.Background())
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if len(jobList) != 1 || jobList[0].ArticleID != article.ID {
		t.Fatalf("unexpected job list: %+v", jobList)
	}

	// Resubmitting joins the in-flight job instead of creating a new one.
	again, err := client.SubmitCheck(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again != jobID {
		t.Fatalf("resubmit returned %q, want %q", again, jobID)
	}
}

func TestAPISubmitCheckErrors(t *testing.T) {
	d, _ := newTestDaemon(t)
	startDaemon(t, d)
	client := apiClient(t, d, "")

	if _, err := client.SubmitCheck(context.Background(), 404404); err == nil || !strings.Contains(err.Error(), "article not found") {
		t.Fatalf("expected not found error, got %v", err)
	}

	article, err := client.AddArticle(context.Background(), "https://example.com/story", "")
	if err != nil {
		t.Fatalf("add article: %v", err)
	}
	record := factcheck.ErrorRecord(article.ID, "done-job", "timeout", time.Now().UTC())
	if err := d.store.SaveRecord(context.Background(), record); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if _, err := client.SubmitCheck(context.Background(), article.ID); err == nil {
		t.Fatal("expected conflict for article with existing record")
	}

	got, err := client.GetCheck(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("get check: %v", err)
	}
	if got.Verdict != string(factcheck.VerdictError) || got.CredibilityScore != factcheck.ErrorScore {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestAPIGetCheckNoCheck(t *testing.T) {
	d, _ := newTestDaemon(t)
	startDaemon(t, d)
	client := apiClient(t, d, "")

	article, err := client.AddArticle(context.Background(), "https://example.com/story", "")
	if err != nil {
		t.Fatalf("add article: %v", err)
	}
	if _, err := client.GetCheck(context.Background(), article.ID); !errors.Is(err, api.ErrNoCheck) {
		t.Fatalf("expected no-check sentinel, got %v", err)
	}
}

func TestAPIBearerAuth(t *testing.T) {
	d, _ := newTestDaemon(t, testsupport.WithAPIToken("secret-token"))
	startDaemon(t, d)

	unauthenticated := apiClient(t, d, "")
	if _, err := unauthenticated.Status(context.Background()); err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	wrong := apiClient(t, d, "not-the-token")
	if _, err := wrong.Status(context.Background()); err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected unauthorized for wrong token, got %v", err)
	}

	authed := apiClient(t, d, "secret-token")
	if _, err := authed.Status(context.Background()); err != nil {
		t.Fatalf("authenticated request failed: %v", err)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	d, _ := newTestDaemon(t)
	ok, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if ok {
		t.Fatal("expected failure without configured topic")
	}
	if !strings.Contains(message, "not configured") {
		t.Fatalf("unexpected message %q", message)
	}
}
