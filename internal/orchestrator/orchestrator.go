package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"veracity/internal/config"
	"veracity/internal/factcheck"
	"veracity/internal/jobs"
	"veracity/internal/logging"
	"veracity/internal/notifications"
	"veracity/internal/services"
	"veracity/internal/services/verifier"
	"veracity/internal/store"
)

// Client is the slice of the verifier API the orchestrator drives.
// *verifier.Client satisfies it; tests may substitute fakes.
type Client interface {
	Submit(ctx context.Context, url, mode string) (string, error)
	GetStatus(ctx context.Context, jobID string) (verifier.JobStatus, error)
	GetResult(ctx context.Context, jobID string) (*verifier.Result, error)
}

// Orchestrator coordinates fact-check jobs: one poller goroutine per active
// job, at most one active job per article, and a concurrency cap across jobs.
type Orchestrator struct {
	cfg      *config.Config
	store    *store.Store
	client   Client
	notifier notifications.Service
	logger   *slog.Logger

	backoff      jobs.Backoff
	mode         string
	primaryClaim string

	registry *registry
	slots    chan struct{}

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option customizes orchestrator behavior, mainly for tests.
type Option func(*Orchestrator)

// WithClock overrides the time source used for deadlines.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithBackoff overrides the poll schedule.
func WithBackoff(b jobs.Backoff) Option {
	return func(o *Orchestrator) {
		o.backoff = b
	}
}

// New constructs an orchestrator from configuration and collaborators.
func New(cfg *config.Config, st *store.Store, client Client, notifier notifications.Service, logger *slog.Logger, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		store:    st,
		client:   client,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		backoff: jobs.Backoff{
			Base:    time.Duration(cfg.Poll.BaseDelaySeconds) * time.Second,
			Cap:     time.Duration(cfg.Poll.DelayCapSeconds) * time.Second,
			MaxWait: time.Duration(cfg.Poll.MaxWaitSeconds) * time.Second,
		},
		mode:         cfg.Verifier.Mode,
		primaryClaim: cfg.Transform.PrimaryClaim,
		registry:     newRegistry(),
		slots:        make(chan struct{}, cfg.Poll.MaxConcurrent),
		now:          time.Now,
		sleep:        sleepWithContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Start begins background processing and resumes any jobs checkpointed by a
// previous run.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return errors.New("orchestrator already running")
	}
	o.runCtx, o.cancel = context.WithCancel(ctx)
	o.running = true
	o.mu.Unlock()

	if err := o.resumeCheckpoints(o.runCtx); err != nil {
		o.logger.Warn("checkpoint recovery incomplete",
			logging.Error(err),
			logging.String(logging.FieldEventType, "checkpoint_recovery_failed"),
		)
		if nerr := o.notifier.NotifyError(ctx, err, "checkpoint recovery"); nerr != nil {
			o.logger.Debug("error notification failed", logging.Error(nerr))
		}
	}
	return nil
}

// Stop cancels in-flight polling and waits for poller goroutines to drain.
// Cancelled jobs commit nothing; their checkpoints remain for the next run.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel := o.cancel
	o.running = false
	o.cancel = nil
	o.mu.Unlock()

	cancel()
	o.wg.Wait()
}

// Submit starts a fact-check for the article, or joins the one already in
// flight: a duplicate submission returns the existing job ID. The external
// submission happens synchronously so permanent submission failures surface
// to the caller; polling continues in the background.
func (o *Orchestrator) Submit(ctx context.Context, articleID int64) (string, error) {
	o.mu.Lock()
	running := o.running
	runCtx := o.runCtx
	o.mu.Unlock()
	if !running {
		return "", errors.New("orchestrator not running")
	}

	h, existing := o.registry.reserve(articleID)
	if existing {
		return h.await(ctx)
	}

	job, err := o.submitJob(ctx, articleID)
	if err != nil {
		h.complete(nil, err)
		o.registry.release(articleID)
		return "", err
	}
	h.complete(job, nil)

	logger := o.jobLogger(job)
	logger.Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String("source_url", job.SourceURL),
	)
	if err := o.notifier.NotifyCheckStarted(ctx, articleID, job.SourceURL); err != nil {
		logger.Debug("start notification failed", logging.Error(err))
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.registry.release(articleID)

		// Capacity gating happens after submission: the job is already
		// registered and its deadline anchored, so excess jobs queue here
		// instead of hammering the external service.
		select {
		case o.slots <- struct{}{}:
			defer func() { <-o.slots }()
		case <-runCtx.Done():
			return
		}
		o.pollJob(runCtx, job)
	}()

	return job.ID, nil
}

func (o *Orchestrator) submitJob(ctx context.Context, articleID int64) (*jobs.Job, error) {
	if _, found, err := o.store.GetRecord(ctx, articleID); err != nil {
		return nil, fmt.Errorf("check existing record: %w", err)
	} else if found {
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "submit",
			fmt.Sprintf("article %d already has a fact-check record", articleID), nil)
	}

	url, err := o.store.GetArticleURL(ctx, articleID)
	if err != nil {
		return nil, err
	}

	jobID, err := o.client.Submit(ctx, url, o.mode)
	if err != nil {
		return nil, err
	}

	submittedAt := o.now().UTC()
	job := jobs.New(jobID, articleID, url, submittedAt, o.backoff.DeadlineFor(submittedAt))
	if err := o.store.SaveCheckpoint(ctx, job); err != nil {
		// The remote job is orphaned but harmless; the external service
		// garbage-collects unfetched jobs.
		return nil, fmt.Errorf("checkpoint new job: %w", err)
	}
	return job, nil
}

// resumeCheckpoints re-registers jobs that were mid-poll when the previous
// process stopped. Jobs whose deadline passed while the daemon was down are
// committed as timed out immediately.
func (o *Orchestrator) resumeCheckpoints(ctx context.Context) error {
	checkpoints, err := o.store.ListActiveCheckpoints(ctx)
	if err != nil {
		return err
	}

	for _, job := range checkpoints {
		if _, ok := o.registry.adopt(job); !ok {
			continue
		}
		logger := o.jobLogger(job)
		logger.Info("resuming checkpointed job",
			logging.String(logging.FieldEventType, "job_resumed"),
			logging.String(logging.FieldState, string(job.State)),
			logging.Int(logging.FieldAttempt, job.Attempt),
		)

		job := job
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			defer o.registry.release(job.ArticleID)

			select {
			case o.slots <- struct{}{}:
				defer func() { <-o.slots }()
			case <-ctx.Done():
				return
			}
			o.pollJob(ctx, job)
		}()
	}
	return nil
}

// GetRecord is the read path for API consumers.
func (o *Orchestrator) GetRecord(ctx context.Context, articleID int64) (*factcheck.Record, bool, error) {
	return o.store.GetRecord(ctx, articleID)
}

// JobFor returns a snapshot of the active job for an article, if any.
func (o *Orchestrator) JobFor(articleID int64) (jobs.Job, bool) {
	h, ok := o.registry.lookup(articleID)
	if !ok {
		return jobs.Job{}, false
	}
	return h.snapshot()
}

// ActiveJobs snapshots all currently registered jobs.
func (o *Orchestrator) ActiveJobs() []jobs.Job {
	return o.registry.active()
}

func (o *Orchestrator) jobLogger(job *jobs.Job) *slog.Logger {
	return o.logger.With(
		logging.Int64(logging.FieldArticleID, job.ArticleID),
		logging.String(logging.FieldJobID, job.ID),
	)
}
