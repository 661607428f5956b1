// Package jobs models the fact-check job lifecycle: the monotonic state
// machine each job moves through and the backoff schedule that bounds how
// long a job is polled.
package jobs
