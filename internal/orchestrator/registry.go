package orchestrator

import (
	"context"
	"sync"

	"veracity/internal/jobs"
)

// handle tracks one in-flight submission. Callers that hit an existing
// reservation wait on ready and then share the same job ID (or the same
// submission error).
type handle struct {
	articleID int64
	ready     chan struct{}

	mu        sync.Mutex
	job       *jobs.Job
	submitErr error
}

func newHandle(articleID int64) *handle {
	return &handle{articleID: articleID, ready: make(chan struct{})}
}

func (h *handle) complete(job *jobs.Job, err error) {
	h.mu.Lock()
	h.job = job
	h.submitErr = err
	h.mu.Unlock()
	close(h.ready)
}

func (h *handle) await(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-h.ready:
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.submitErr != nil {
		return "", h.submitErr
	}
	return h.job.ID, nil
}

// snapshot returns a copy of the tracked job, or false before submission has
// completed.
func (h *handle) snapshot() (jobs.Job, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.job == nil {
		return jobs.Job{}, false
	}
	return *h.job, true
}

// registry is the in-process map enforcing at-most-one active job per
// article. It is an owned, injectable component so tests can instantiate
// isolated registries per case.
type registry struct {
	mu      sync.Mutex
	entries map[int64]*handle
}

func newRegistry() *registry {
	return &registry{entries: make(map[int64]*handle)}
}

// reserve performs the check-and-insert: when an entry already exists for the
// article it is returned with existing=true, and no new reservation is made.
func (r *registry) reserve(articleID int64) (h *handle, existing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[articleID]; ok {
		return current, true
	}
	h = newHandle(articleID)
	r.entries[articleID] = h
	return h, false
}

// adopt registers a handle for a job resumed from a checkpoint. Returns false
// when the article already has an active job.
func (r *registry) adopt(job *jobs.Job) (*handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[job.ArticleID]; ok {
		return nil, false
	}
	h := newHandle(job.ArticleID)
	h.job = job
	close(h.ready)
	r.entries[job.ArticleID] = h
	return h, true
}

// release removes the article's reservation once its job reaches a terminal
// outcome or its submission fails.
func (r *registry) release(articleID int64) {
	r.mu.Lock()
	delete(r.entries, articleID)
	r.mu.Unlock()
}

// lookup returns the active handle for an article, if any.
func (r *registry) lookup(articleID int64) (*handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[articleID]
	return h, ok
}

// active snapshots all jobs whose submission has completed.
func (r *registry) active() []jobs.Job {
	r.mu.Lock()
	handles := make([]*handle, 0, len(r.entries))
	for _, h := range r.entries {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	snapshot := make([]jobs.Job, 0, len(handles))
	for _, h := range handles {
		if job, ok := h.snapshot(); ok {
			snapshot = append(snapshot, job)
		}
	}
	return snapshot
}
