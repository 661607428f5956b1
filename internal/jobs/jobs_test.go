package jobs

import (
	"testing"
	"time"
)

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from State
		to   State
		ok   bool
	}{
		{StateQueued, StateStarted, true},
		{StateQueued, StateFinished, true},
		{StateQueued, StateFailed, true},
		{StateStarted, StateFinished, true},
		{StateStarted, StateFailed, true},
		{StateQueued, StateTimedOut, true},
		{StateStarted, StateTimedOut, true},
		{StateStarted, StateQueued, false},
		{StateFinished, StateFailed, false},
		{StateFinished, StateTimedOut, false},
		{StateFailed, StateFinished, false},
		{StateTimedOut, StateStarted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	for _, state := range []State{StateFinished, StateFailed, StateTimedOut} {
		if !state.Terminal() {
			t.Fatalf("expected %s to be terminal", state)
		}
		if state.Active() {
			t.Fatalf("expected %s to be inactive", state)
		}
		for _, next := range AllStates() {
			if state.CanTransition(next) {
				t.Fatalf("terminal state %s allows transition to %s", state, next)
			}
		}
	}
}

func TestJobFailRecordsReason(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := New("job-1", 7, "https://example.com/a", now, now.Add(2*time.Minute))

	if job.State != StateQueued {
		t.Fatalf("expected new job queued, got %s", job.State)
	}
	if err := job.Transition(StateStarted); err != nil {
		t.Fatalf("transition to started: %v", err)
	}
	if err := job.Fail("external verification failed"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if job.State != StateFailed {
		t.Fatalf("expected failed, got %s", job.State)
	}
	if job.FailureReason != "external verification failed" {
		t.Fatalf("unexpected reason %q", job.FailureReason)
	}
	if err := job.Transition(StateFinished); err == nil {
		t.Fatal("expected transition out of failed to be rejected")
	}
}

func TestJobTimeoutFromAnyActiveState(t *testing.T) {
	now := time.Now().UTC()
	for _, setup := range []State{StateQueued, StateStarted} {
		job := New("job-2", 8, "https://example.com/b", now, now.Add(time.Minute))
		if setup == StateStarted {
			if err := job.Transition(StateStarted); err != nil {
				t.Fatalf("transition: %v", err)
			}
		}
		if err := job.Timeout(); err != nil {
			t.Fatalf("timeout from %s: %v", setup, err)
		}
		if job.State != StateTimedOut {
			t.Fatalf("expected timed out, got %s", job.State)
		}
		if job.FailureReason != TimeoutReason {
			t.Fatalf("unexpected reason %q", job.FailureReason)
		}
	}
}

func TestBackoffSchedule(t *testing.T) {
	b := DefaultBackoff()
	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		20 * time.Second,
		20 * time.Second,
	}
	for attempt, expected := range want {
		if got := b.NextDelay(attempt); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", attempt, expected, got)
		}
	}
}

func TestBackoffScheduleFitsBudget(t *testing.T) {
	// 5+10+20+20+20+20+20 = 115s fits; one more poll would pass 120s.
	b := DefaultBackoff()
	var total time.Duration
	polls := 0
	for attempt := 0; ; attempt++ {
		next := total + b.NextDelay(attempt)
		if next > b.MaxWait {
			break
		}
		total = next
		polls++
	}
	if polls != 7 {
		t.Fatalf("expected 7 polls within budget, got %d (total %s)", polls, total)
	}
	if total != 115*time.Second {
		t.Fatalf("expected 115s consumed, got %s", total)
	}
}

func TestBackoffExpiry(t *testing.T) {
	b := DefaultBackoff()
	submitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if b.IsExpired(submitted, submitted.Add(119*time.Second)) {
		t.Fatal("budget should not be expired at 119s")
	}
	if !b.IsExpired(submitted, submitted.Add(120*time.Second)) {
		t.Fatal("budget should be expired at exactly 120s")
	}
	if got := b.DeadlineFor(submitted); !got.Equal(submitted.Add(2 * time.Minute)) {
		t.Fatalf("unexpected deadline %s", got)
	}
}
