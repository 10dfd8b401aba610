package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a controllable Clock for testing time-dependent transitions.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock Clock, threshold int, resetTimeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(BreakerConfig{
		Name:             "test",
		FailureThreshold: threshold,
		ResetTimeout:     resetTimeout,
		Clock:            clock,
	})
}

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		name  string
		state CircuitState
		want  string
	}{
		{"closed state", StateClosed, "closed"},
		{"open state", StateOpen, "open"},
		{"half-open state", StateHalfOpen, "half-open"},
		{"unknown state", CircuitState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{Name: "defaults"})

	if cb.threshold != 5 {
		t.Errorf("expected default threshold 5, got %d", cb.threshold)
	}
	if cb.resetTimeout != 30*time.Second {
		t.Errorf("expected default reset timeout 30s, got %v", cb.resetTimeout)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected initial state closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 3, 30*time.Second)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if cb.State() != StateClosed {
			t.Fatalf("expected closed after %d failures, got %v", i+1, cb.State())
		}
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("expected open after 3 failures, got %v", cb.State())
	}

	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 3, 30*time.Second)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("expected closed, counter should have reset, got %v", cb.State())
	}
	if got := cb.Stats().ConsecutiveFailures; got != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", got)
	}
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, 30*time.Second)

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %v", cb.State())
	}

	// Still within the cooling-off period
	clock.Advance(29 * time.Second)
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected rejection before reset timeout, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Errorf("expected probe admission after reset timeout, got %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("expected half-open, got %v", cb.State())
	}
}

func TestCircuitBreaker_ProbeSuccessCloses(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, 30*time.Second)

	cb.RecordFailure()
	clock.Advance(31 * time.Second)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe admission, got %v", err)
	}
	cb.RecordSuccess()

	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %v", cb.State())
	}
	if got := cb.Stats().ConsecutiveFailures; got != 0 {
		t.Errorf("expected failure count reset to 0, got %d", got)
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("expected admission after recovery, got %v", err)
	}
}

func TestCircuitBreaker_ProbeFailureReopensAndRestartsTimer(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, 30*time.Second)

	cb.RecordFailure()
	clock.Advance(31 * time.Second)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe admission, got %v", err)
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("expected open after failed probe, got %v", cb.State())
	}

	// The reset timer restarted at the failed probe, so 29s later the
	// circuit must still reject.
	clock.Advance(29 * time.Second)
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected rejection, reset timer should have restarted, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Errorf("expected probe admission after restarted timeout, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenAdmitsSingleProbe(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, 30*time.Second)

	cb.RecordFailure()
	clock.Advance(31 * time.Second)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected first probe admission, got %v", err)
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected second call rejected while probe in flight, got %v", err)
	}
}

func TestCircuitBreaker_AllowDoesNotMutateFailureCount(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 5, 30*time.Second)

	cb.RecordFailure()
	cb.RecordFailure()

	for i := 0; i < 10; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("expected admission in closed state, got %v", err)
		}
	}

	if got := cb.Stats().ConsecutiveFailures; got != 2 {
		t.Errorf("Allow() mutated failure count: expected 2, got %d", got)
	}
}

func TestCircuitBreaker_ConcurrentFailuresNotLost(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1000, 30*time.Second)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			cb.RecordFailure()
		}()
	}
	wg.Wait()

	if got := cb.Stats().ConsecutiveFailures; got != n {
		t.Errorf("expected %d recorded failures, got %d (lost updates)", n, got)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, 30*time.Second)

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %v", cb.State())
	}

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("expected closed after reset, got %v", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("expected admission after reset, got %v", err)
	}
	if got := cb.Stats().ConsecutiveFailures; got != 0 {
		t.Errorf("expected 0 failures after reset, got %d", got)
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 3, 30*time.Second)

	cb.RecordFailure()
	clock.Advance(10 * time.Second)

	stats := cb.Stats()
	if stats.State != StateClosed {
		t.Errorf("expected closed state, got %v", stats.State)
	}
	if stats.ConsecutiveFailures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.ConsecutiveFailures)
	}
	if stats.TimeSinceLastChange != 10*time.Second {
		t.Errorf("expected 10s since last change, got %v", stats.TimeSinceLastChange)
	}
}

func TestCircuitBreaker_RecordsStateMetrics(t *testing.T) {
	clock := newFakeClock()
	recorder := &stateRecorder{}
	cb := NewCircuitBreaker(BreakerConfig{
		Name:             "metrics-test",
		FailureThreshold: 1,
		ResetTimeout:     30 * time.Second,
		Clock:            clock,
		Metrics:          recorder,
	})

	cb.RecordFailure()
	clock.Advance(31 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe admission, got %v", err)
	}
	cb.RecordSuccess()

	want := []string{"closed", "open", "half-open", "closed"}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.states) != len(want) {
		t.Fatalf("expected %d state records, got %v", len(want), recorder.states)
	}
	for i, s := range want {
		if recorder.states[i] != s {
			t.Errorf("state record %d = %q, want %q", i, recorder.states[i], s)
		}
	}
}

// stateRecorder captures circuit state transitions for assertions.
type stateRecorder struct {
	NoOpMetrics
	mu     sync.Mutex
	states []string
}

func (r *stateRecorder) RecordCircuitState(breaker, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}
