package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"veracity/internal/config"
	"veracity/internal/jobs"
	"veracity/internal/logging"
	"veracity/internal/notifications"
	"veracity/internal/orchestrator"
	"veracity/internal/store"
)

// Daemon coordinates background fact-checking and enforces single-instance
// execution via a file lock.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
	notifier     notifications.Service

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	ActiveJobs   []jobs.Job
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, orc *orchestrator.Orchestrator, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || orc == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, orchestrator, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "veracityd.lock")
	d := &Daemon{
		cfg:          cfg,
		logger:       logger,
		store:        st,
		orchestrator: orc,
		notifier:     notifier,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, resumes checkpointed jobs, and begins
// serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another veracity daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.orchestrator.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start orchestrator: %w", err)
	}
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.orchestrator.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("veracity daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.orchestrator.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("veracity daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports current runtime state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		ActiveJobs:   d.orchestrator.ActiveJobs(),
	}
}

// AddArticle registers an article for later fact-checking.
func (d *Daemon) AddArticle(ctx context.Context, url, title string) (*store.Article, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("article url required")
	}
	return d.store.AddArticle(ctx, url, title)
}

// ListArticles returns all registered articles with cached verdict fields.
func (d *Daemon) ListArticles(ctx context.Context) ([]*store.Article, error) {
	return d.store.ListArticles(ctx)
}

// SubmitCheck starts (or joins) a fact-check job for the article.
func (d *Daemon) SubmitCheck(ctx context.Context, articleID int64) (string, error) {
	return d.orchestrator.Submit(ctx, articleID)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "notification send failed", err
	}
	return true, "notification sent", nil
}
