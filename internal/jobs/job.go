package jobs

import (
	"fmt"
	"strings"
	"time"
)

// State represents the lifecycle of a fact-check job.
type State string

const (
	StateQueued   State = "queued"
	StateStarted  State = "started"
	StateFinished State = "finished"
	StateFailed   State = "failed"
	StateTimedOut State = "timed_out"
)

// TimeoutReason is the failure reason recorded when a job exceeds its deadline.
const TimeoutReason = "timeout"

// MalformedResultReason is the failure reason recorded when a finished job's
// payload cannot be transformed.
const MalformedResultReason = "malformed_result"

var allStates = []State{
	StateQueued,
	StateStarted,
	StateFinished,
	StateFailed,
	StateTimedOut,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// Terminal reports whether a state ends the job lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateFinished, StateFailed, StateTimedOut:
		return true
	default:
		return false
	}
}

// Active reports whether a job in this state still needs polling.
func (s State) Active() bool {
	return s == StateQueued || s == StateStarted
}

// legal forward transitions; any active state may additionally move to
// StateTimedOut on deadline expiry.
var transitions = map[State][]State{
	StateQueued:  {StateStarted, StateFinished, StateFailed},
	StateStarted: {StateFinished, StateFailed},
}

// CanTransition reports whether moving from s to next is legal. Transitions
// are monotonic and one-directional; terminal states never re-enter.
func (s State) CanTransition(next State) bool {
	if s == next {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StateTimedOut {
		return s.Active()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job tracks one external fact-check request tied to one article. It lives in
// the orchestrator's memory and a durable checkpoint used to resume in-flight
// polling after a restart.
type Job struct {
	ID            string
	ArticleID     int64
	SourceURL     string
	State         State
	Attempt       int
	SubmittedAt   time.Time
	Deadline      time.Time
	FailureReason string
	UpdatedAt     time.Time
}

// New returns a freshly submitted job in StateQueued.
func New(jobID string, articleID int64, sourceURL string, submittedAt, deadline time.Time) *Job {
	return &Job{
		ID:          jobID,
		ArticleID:   articleID,
		SourceURL:   sourceURL,
		State:       StateQueued,
		SubmittedAt: submittedAt,
		Deadline:    deadline,
		UpdatedAt:   submittedAt,
	}
}

// Transition moves the job to next, enforcing the monotonic state machine.
func (j *Job) Transition(next State) error {
	if !j.State.CanTransition(next) {
		return fmt.Errorf("illegal job transition %s -> %s", j.State, next)
	}
	j.State = next
	return nil
}

// Fail marks the job failed with the supplied reason.
func (j *Job) Fail(reason string) error {
	if err := j.Transition(StateFailed); err != nil {
		return err
	}
	j.FailureReason = strings.TrimSpace(reason)
	return nil
}

// Timeout marks the job timed out. The deadline is a definite, user-visible
// outcome, so it is recorded with a fixed reason rather than treated as an
// abort.
func (j *Job) Timeout() error {
	if err := j.Transition(StateTimedOut); err != nil {
		return err
	}
	j.FailureReason = TimeoutReason
	return nil
}
