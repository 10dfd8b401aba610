package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow when the circuit is open and the
// cooling-off period has not elapsed. The protected operation is never
// invoked in that case.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// StateClosed indicates the circuit is closed and calls are admitted.
	// This is the normal operating state.
	StateClosed CircuitState = iota

	// StateOpen indicates the circuit is open due to consecutive failures.
	// While open, every call is rejected without invoking the operation
	// until the reset timeout elapses.
	StateOpen

	// StateHalfOpen indicates the circuit is testing recovery.
	// A single probe call is admitted to check whether the protected
	// resource has recovered.
	StateHalfOpen
)

// String returns a string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// Name identifies the protected resource in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures required to
	// open the circuit. Default: 5
	FailureThreshold int

	// ResetTimeout is the duration to wait in the open state before
	// admitting a recovery probe. Default: 30 seconds
	ResetTimeout time.Duration

	// Clock provides time abstraction for testing.
	// Default: SystemClock
	Clock Clock

	// Metrics for recording circuit state changes.
	// Default: NoOpMetrics
	Metrics Metrics

	// Logger for state change events. Default: slog.Default()
	Logger *slog.Logger
}

// CircuitBreaker implements the circuit breaker pattern for calls to an
// unreliable resource.
//
// The breaker has three states:
//
//   - Closed (normal): calls are admitted, consecutive failures are counted
//   - Open (rejecting): after the failure threshold is reached, every call
//     is rejected without invoking the operation until ResetTimeout elapses
//   - Half-Open (probing): one call is admitted to test recovery; success
//     closes the circuit, failure reopens it and restarts the timer
//
// One breaker instance guards one resource and is shared read-write across
// all callers of that resource. All methods are safe for concurrent use;
// state transitions and the failure counter are serialized by a mutex.
type CircuitBreaker struct {
	name         string
	threshold    int
	resetTimeout time.Duration
	clock        Clock
	metrics      Metrics
	logger       *slog.Logger

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	lastFailureTime     time.Time
	lastStateChange     time.Time
	probeInFlight       bool
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
//
// If config.FailureThreshold is 0, it defaults to 5.
// If config.ResetTimeout is 0, it defaults to 30 seconds.
// If config.Clock is nil, it defaults to SystemClock.
// If config.Metrics is nil, it defaults to NoOpMetrics.
// If config.Logger is nil, it defaults to slog.Default().
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	cb := &CircuitBreaker{
		name:         config.Name,
		threshold:    config.FailureThreshold,
		resetTimeout: config.ResetTimeout,
		clock:        config.Clock,
		metrics:      config.Metrics,
		logger:       config.Logger,
		state:        StateClosed,
	}
	cb.lastStateChange = config.Clock.Now()

	// Record initial state
	config.Metrics.RecordCircuitState(cb.name, cb.state.String())

	return cb
}

// Allow decides whether a call may proceed given the current state and the
// time elapsed since the last transition.
//
// Behavior by state:
//   - Closed: admitted
//   - Open: rejected with ErrCircuitOpen; once ResetTimeout has elapsed the
//     circuit transitions to half-open and the call is admitted as the probe
//   - Half-Open: admitted only if no probe is already in flight
//
// Allow never mutates the failure counter; an admitted call must report its
// result through RecordSuccess or RecordFailure, exactly once per invoked
// attempt.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		now := cb.clock.Now()
		if now.Sub(cb.lastStateChange) < cb.resetTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen, now)
		cb.probeInFlight = true
		return nil

	case StateHalfOpen:
		if cb.probeInFlight {
			return ErrCircuitOpen
		}
		cb.probeInFlight = true
		return nil

	default:
		return nil
	}
}

// RecordSuccess records a successful call.
//
// The consecutive failure count resets to 0. A successful half-open probe
// closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	if cb.state == StateHalfOpen {
		cb.probeInFlight = false
		cb.transition(StateClosed, cb.clock.Now())
	}
}

// RecordFailure records a failed call.
//
// In the closed state, reaching the failure threshold opens the circuit.
// In the half-open state, a failed probe reopens the circuit and restarts
// the reset timer.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.clock.Now()
	cb.consecutiveFailures++
	cb.lastFailureTime = now

	switch cb.state {
	case StateClosed:
		if cb.consecutiveFailures >= cb.threshold {
			cb.transition(StateOpen, now)
		}
	case StateHalfOpen:
		cb.probeInFlight = false
		cb.transition(StateOpen, now)
	case StateOpen:
		// A call admitted before the circuit opened finished late.
		// The counter still advances; the state does not change.
	}
}

// transition moves the breaker to a new state. Callers must hold cb.mu.
func (cb *CircuitBreaker) transition(to CircuitState, now time.Time) {
	from := cb.state
	cb.state = to
	cb.lastStateChange = now

	cb.metrics.RecordCircuitState(cb.name, to.String())
	cb.logger.Warn("circuit breaker state changed",
		slog.String("circuit", cb.name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("consecutive_failures", cb.consecutiveFailures))
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsOpen returns true if the circuit is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state == StateOpen
}

// Reset resets the circuit breaker to the closed state.
//
// This is useful for testing or manual intervention.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.consecutiveFailures = 0
	cb.probeInFlight = false
	cb.lastFailureTime = time.Time{}
	cb.lastStateChange = cb.clock.Now()

	cb.metrics.RecordCircuitState(cb.name, cb.state.String())
}

// BreakerStats holds a snapshot of circuit breaker statistics.
type BreakerStats struct {
	State               CircuitState
	ConsecutiveFailures int
	LastFailureTime     time.Time
	LastStateChange     time.Time
	TimeSinceLastChange time.Duration
}

// Stats returns current circuit breaker statistics.
//
// This is useful for monitoring and debugging.
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.clock.Now()
	return BreakerStats{
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
		LastFailureTime:     cb.lastFailureTime,
		LastStateChange:     cb.lastStateChange,
		TimeSinceLastChange: now.Sub(cb.lastStateChange),
	}
}
