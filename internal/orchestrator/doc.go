// Package orchestrator coordinates the lifecycle of fact-check jobs: it
// submits articles to the external verification service, polls with bounded
// exponential backoff until a terminal state, transforms results into
// credibility records, and commits them atomically. At most one job per
// article is in flight at any time; duplicate submissions join the existing
// job instead of creating a new one.
package orchestrator
