package jobs

import "time"

const (
	// DefaultBaseDelay is the first poll delay after submission.
	DefaultBaseDelay = 5 * time.Second
	// DefaultDelayCap bounds the exponential growth of poll delays.
	DefaultDelayCap = 20 * time.Second
	// DefaultMaxWait is the total wait budget from job submission.
	DefaultMaxWait = 120 * time.Second
)

// Backoff computes poll delays and the absolute deadline for a job. No jitter
// is applied: exactly one poller runs per job, so there is no thundering-herd
// risk against the same job.
type Backoff struct {
	Base    time.Duration
	Cap     time.Duration
	MaxWait time.Duration
}

// DefaultBackoff returns the standard schedule: 5s, 10s, 20s, 20s, ... within
// a 120 second budget.
func DefaultBackoff() Backoff {
	return Backoff{Base: DefaultBaseDelay, Cap: DefaultDelayCap, MaxWait: DefaultMaxWait}
}

// NextDelay returns the delay before poll attempt+1. Attempts are 0-indexed.
func (b Backoff) NextDelay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = DefaultBaseDelay
	}
	cap := b.Cap
	if cap <= 0 {
		cap = DefaultDelayCap
	}
	if attempt < 0 {
		attempt = 0
	}

	delay := base
	for i := 0; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}

// IsExpired reports whether the total wait budget has elapsed.
func (b Backoff) IsExpired(submittedAt, now time.Time) bool {
	return !now.Before(b.DeadlineFor(submittedAt))
}

// DeadlineFor returns the absolute cutoff for a job submitted at the given time.
func (b Backoff) DeadlineFor(submittedAt time.Time) time.Time {
	maxWait := b.MaxWait
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return submittedAt.Add(maxWait)
}
