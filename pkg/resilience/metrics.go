package resilience

import "time"

// Metrics defines the interface for recording resilience metrics.
//
// Implementations can use Prometheus, StatsD, or custom metrics systems.
type Metrics interface {
	// RecordAttempt records one invocation of a protected operation.
	//
	// Parameters:
	//   - op: Executor name (e.g., "launch", "navigate")
	//   - result: "success" or "failure"
	RecordAttempt(op, result string)

	// RecordOutcome records the final result of one Run call.
	//
	// Parameters:
	//   - op: Executor name
	//   - outcome: "success", "exhausted", "non_retryable", "rejected" or "aborted"
	RecordOutcome(op, outcome string)

	// ObserveRetryDelay records the backoff wait before a retry.
	ObserveRetryDelay(op string, delay time.Duration)

	// RecordCircuitState records the current state of a circuit breaker.
	//
	// Parameters:
	//   - breaker: Circuit breaker name
	//   - state: Circuit state (e.g., "closed", "open", "half-open")
	RecordCircuitState(breaker, state string)
}

// NoOpMetrics implements the Metrics interface with no-op implementations.
//
// This implementation is useful for tests and for callers that do not
// collect metrics. All methods have minimal performance impact.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordAttempt is a no-op implementation.
func (m *NoOpMetrics) RecordAttempt(op, result string) {
	// No-op
}

// RecordOutcome is a no-op implementation.
func (m *NoOpMetrics) RecordOutcome(op, outcome string) {
	// No-op
}

// ObserveRetryDelay is a no-op implementation.
func (m *NoOpMetrics) ObserveRetryDelay(op string, delay time.Duration) {
	// No-op
}

// RecordCircuitState is a no-op implementation.
func (m *NoOpMetrics) RecordCircuitState(breaker, state string) {
	// No-op
}
