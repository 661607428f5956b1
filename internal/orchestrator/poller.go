package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"veracity/internal/factcheck"
	"veracity/internal/jobs"
	"veracity/internal/logging"
	"veracity/internal/services"
	"veracity/internal/services/verifier"
)

// pollJob drives one job to a terminal state. Every exit path except context
// cancellation commits exactly one record; cancellation commits nothing and
// leaves the checkpoint in place so the job resumes on the next run.
func (o *Orchestrator) pollJob(ctx context.Context, job *jobs.Job) {
	logger := o.jobLogger(job)

	for {
		if o.backoff.IsExpired(job.SubmittedAt, o.now()) {
			o.commitTimeout(ctx, job, logger)
			return
		}
		if err := o.sleep(ctx, o.backoff.NextDelay(job.Attempt)); err != nil {
			logger.Info("polling cancelled",
				logging.String(logging.FieldEventType, "job_cancelled"),
				logging.Int(logging.FieldAttempt, job.Attempt),
			)
			return
		}
		job.Attempt++

		status, err := o.client.GetStatus(ctx, job.ID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if services.Classify(err) == services.ClassPermanent {
				o.commitFailure(ctx, job, "status check failed permanently", err, logger)
				return
			}
			logger.Debug("transient status error, will retry",
				logging.Error(err),
				logging.Int(logging.FieldAttempt, job.Attempt),
			)
			o.checkpoint(ctx, job, logger)
			continue
		}

		switch status.Status {
		case verifier.StatusQueued:
			o.checkpoint(ctx, job, logger)

		case verifier.StatusStarted:
			if job.State == jobs.StateQueued {
				if err := job.Transition(jobs.StateStarted); err != nil {
					o.commitFailure(ctx, job, "invalid state transition", err, logger)
					return
				}
				logger.Info("verification started",
					logging.String(logging.FieldEventType, "job_started"),
					logging.Int("progress", status.Progress),
				)
			}
			o.checkpoint(ctx, job, logger)

		case verifier.StatusFailed:
			o.commitFailure(ctx, job, "external verification failed", nil, logger)
			return

		case verifier.StatusFinished:
			if o.finishJob(ctx, job, logger) {
				return
			}
			// Transient result-fetch error: keep polling within the deadline.
			o.checkpoint(ctx, job, logger)

		default:
			o.commitFailure(ctx, job, "unrecognized status "+status.Status, services.ErrMalformed, logger)
			return
		}
	}
}

// finishJob fetches and transforms the result for a finished job. It returns
// true when the job reached a terminal state (success or permanent failure),
// false when the fetch failed transiently and polling should continue.
func (o *Orchestrator) finishJob(ctx context.Context, job *jobs.Job, logger *slog.Logger) bool {
	result, err := o.client.GetResult(ctx, job.ID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if services.Classify(err) == services.ClassPermanent {
			o.commitFailure(ctx, job, "result fetch failed permanently", err, logger)
			return true
		}
		logger.Debug("transient result error, will retry", logging.Error(err))
		return false
	}

	// Transform before the state transition: a malformed payload fails the
	// job, and Finished is terminal.
	record, err := factcheck.Transform(job.ArticleID, job.ID, result, factcheck.TransformOptions{
		PrimaryClaim: o.primaryClaim,
		Now:          o.now(),
	})
	if err != nil {
		if errors.Is(err, services.ErrMalformed) {
			o.commitFailure(ctx, job, jobs.MalformedResultReason, err, logger)
			return true
		}
		o.commitFailure(ctx, job, "result transform failed", err, logger)
		return true
	}

	if err := job.Transition(jobs.StateFinished); err != nil {
		o.commitFailure(ctx, job, "invalid state transition", err, logger)
		return true
	}
	o.commitRecord(ctx, job, record, logger)

	logger.Info("fact-check completed",
		logging.String(logging.FieldEventType, "job_finished"),
		logging.String("verdict", string(record.Verdict)),
		logging.Int("credibility_score", record.CredibilityScore),
		logging.Int(logging.FieldAttempt, job.Attempt),
	)
	if err := o.notifier.NotifyCheckCompleted(ctx, job.ArticleID, record); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	return true
}

// commitTimeout marks the job timed out and commits the sentinel record.
func (o *Orchestrator) commitTimeout(ctx context.Context, job *jobs.Job, logger *slog.Logger) {
	if err := job.Timeout(); err != nil {
		logger.Debug("timeout transition rejected", logging.Error(err))
	}
	record := factcheck.ErrorRecord(job.ArticleID, job.ID, jobs.TimeoutReason, o.now().UTC())
	o.commitRecord(ctx, job, record, logger)

	logger.Warn("fact-check timed out",
		logging.String(logging.FieldEventType, "job_timed_out"),
		logging.Int(logging.FieldAttempt, job.Attempt),
	)
	if err := o.notifier.NotifyCheckFailed(ctx, job.ArticleID, jobs.TimeoutReason); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}

// commitFailure marks the job failed and commits the sentinel record.
func (o *Orchestrator) commitFailure(ctx context.Context, job *jobs.Job, reason string, cause error, logger *slog.Logger) {
	if err := job.Fail(reason); err != nil {
		logger.Debug("failure transition rejected", logging.Error(err))
	}
	record := factcheck.ErrorRecord(job.ArticleID, job.ID, reason, o.now().UTC())
	o.commitRecord(ctx, job, record, logger)

	attrs := []any{
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String("reason", reason),
		logging.Int(logging.FieldAttempt, job.Attempt),
	}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	logger.Warn("fact-check failed", attrs...)
	if err := o.notifier.NotifyCheckFailed(ctx, job.ArticleID, reason); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}

// commitRecord persists the terminal record and clears the checkpoint. The
// save is idempotent, so a crash between save and checkpoint delete is safe:
// the resumed run recommits and hits the no-op path.
func (o *Orchestrator) commitRecord(ctx context.Context, job *jobs.Job, record *factcheck.Record, logger *slog.Logger) {
	// Use a background-derived context for the commit itself so a shutdown
	// racing a terminal job cannot half-abandon it; the store operation is
	// quick and local.
	commitCtx := context.WithoutCancel(ctx)
	if err := o.store.SaveRecord(commitCtx, record); err != nil {
		logger.Error("record commit failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "commit_failed"),
		)
		if nerr := o.notifier.NotifyError(commitCtx, err, "record commit"); nerr != nil {
			logger.Debug("error notification failed", logging.Error(nerr))
		}
		return
	}
	if err := o.store.DeleteCheckpoint(commitCtx, job.ArticleID); err != nil {
		logger.Warn("checkpoint cleanup failed", logging.Error(err))
	}
}

// checkpoint persists the current attempt count and state for crash recovery.
func (o *Orchestrator) checkpoint(ctx context.Context, job *jobs.Job, logger *slog.Logger) {
	if err := o.store.SaveCheckpoint(ctx, job); err != nil {
		logger.Warn("checkpoint save failed", logging.Error(err))
	}
}
