package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veracity/internal/jobs"
)

const checkpointColumns = "article_id, job_id, source_url, state, attempt, failure_reason, submitted_at, deadline, updated_at"

// SaveCheckpoint upserts the durable snapshot of an in-flight job so polling
// can resume after a restart.
func (s *Store) SaveCheckpoint(ctx context.Context, job *jobs.Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	if err := retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO job_checkpoints (
                article_id, job_id, source_url, state, attempt, failure_reason, submitted_at, deadline, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(article_id) DO UPDATE SET
                job_id = excluded.job_id,
                source_url = excluded.source_url,
                state = excluded.state,
                attempt = excluded.attempt,
                failure_reason = excluded.failure_reason,
                deadline = excluded.deadline,
                updated_at = excluded.updated_at`,
			job.ArticleID,
			job.ID,
			job.SourceURL,
			string(job.State),
			job.Attempt,
			nullableString(job.FailureReason),
			formatTime(job.SubmittedAt),
			formatTime(job.Deadline),
			formatTime(job.UpdatedAt),
		)
		return err
	}); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes a job's durable snapshot once its terminal outcome
// has been committed.
func (s *Store) DeleteCheckpoint(ctx context.Context, articleID int64) error {
	if err := retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM job_checkpoints WHERE article_id = ?`, articleID)
		return err
	}); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// ListActiveCheckpoints returns checkpoints whose jobs were still being
// polled when the process last stopped.
func (s *Store) ListActiveCheckpoints(ctx context.Context) ([]*jobs.Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+checkpointColumns+` FROM job_checkpoints WHERE state IN (?, ?) ORDER BY submitted_at`,
		string(jobs.StateQueued),
		string(jobs.StateStarted),
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var active []*jobs.Job
	for rows.Next() {
		job, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		active = append(active, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return active, nil
}

func scanCheckpoint(scanner interface{ Scan(dest ...any) error }) (*jobs.Job, error) {
	var (
		articleID    int64
		jobID        string
		sourceURL    string
		stateStr     string
		attempt      int
		reason       *string
		submittedRaw string
		deadlineRaw  string
		updatedRaw   string
	)

	if err := scanner.Scan(&articleID, &jobID, &sourceURL, &stateStr, &attempt, &reason, &submittedRaw, &deadlineRaw, &updatedRaw); err != nil {
		return nil, err
	}

	state, ok := jobs.ParseState(stateStr)
	if !ok {
		return nil, fmt.Errorf("unknown job state %q", stateStr)
	}

	job := &jobs.Job{
		ID:        jobID,
		ArticleID: articleID,
		SourceURL: sourceURL,
		State:     state,
		Attempt:   attempt,
	}
	if reason != nil {
		job.FailureReason = *reason
	}
	if submitted, err := parseTimeString(submittedRaw); err == nil {
		job.SubmittedAt = submitted
	}
	if deadline, err := parseTimeString(deadlineRaw); err == nil {
		job.Deadline = deadline
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}
