package resilience

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
//
// This implementation provides observability for resilience operations:
//   - Attempt counters by operation and result
//   - Final outcome counters by operation and outcome kind
//   - Retry backoff delay histograms
//   - Circuit breaker state tracking
//
// All metrics use a custom registry for better testability and isolation.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// attemptsTotal tracks individual operation invocations.
	// Labels:
	//   - op: executor name (e.g., "launch", "navigate")
	//   - result: "success" or "failure"
	attemptsTotal *prometheus.CounterVec

	// outcomesTotal tracks final Run results.
	// Labels:
	//   - op: executor name
	//   - outcome: "success", "exhausted", "non_retryable", "rejected", "aborted"
	outcomesTotal *prometheus.CounterVec

	// retryDelay tracks the backoff waits between attempts.
	// Labels:
	//   - op: executor name
	retryDelay *prometheus.HistogramVec

	// circuitState tracks the circuit breaker state.
	// Labels:
	//   - breaker: circuit breaker name
	//
	// Values:
	//   - 0: Closed (normal operation)
	//   - 1: Open (rejecting calls)
	//   - 2: Half-Open (testing recovery)
	circuitState *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance with a
// custom registry.
//
// Using a custom registry (instead of the global prometheus.DefaultRegisterer)
// provides:
//   - Better testability (isolated metrics per test)
//   - No metric conflicts when running multiple instances
//   - Explicit metric lifecycle management
//
// The registry can be passed to promhttp.HandlerFor() to expose metrics.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_attempts_total",
			Help: "Total operation invocations by executor and result",
		},
		[]string{"op", "result"},
	)

	outcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_outcomes_total",
			Help: "Final run results by executor and outcome",
		},
		[]string{"op", "outcome"},
	)

	retryDelay := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resilience_retry_delay_seconds",
			Help:    "Backoff delay before retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"op"},
	)

	circuitState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resilience_circuit_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"breaker"},
	)

	registry.MustRegister(
		attemptsTotal,
		outcomesTotal,
		retryDelay,
		circuitState,
	)

	return &PrometheusMetrics{
		registry:      registry,
		attemptsTotal: attemptsTotal,
		outcomesTotal: outcomesTotal,
		retryDelay:    retryDelay,
		circuitState:  circuitState,
	}
}

// Registry returns the Prometheus registry containing all resilience metrics.
//
// This can be used with promhttp.HandlerFor() to expose metrics:
//
//	metrics := NewPrometheusMetrics()
//	http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt records one invocation of a protected operation.
func (m *PrometheusMetrics) RecordAttempt(op, result string) {
	m.attemptsTotal.WithLabelValues(op, result).Inc()
}

// RecordOutcome records the final result of one Run call.
func (m *PrometheusMetrics) RecordOutcome(op, outcome string) {
	m.outcomesTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveRetryDelay records the backoff wait before a retry.
func (m *PrometheusMetrics) ObserveRetryDelay(op string, delay time.Duration) {
	m.retryDelay.WithLabelValues(op).Observe(delay.Seconds())
}

// RecordCircuitState records the current state of a circuit breaker.
//
// The state is mapped to a numeric gauge for Prometheus alerting:
//   - 0 = closed
//   - 1 = open
//   - 2 = half-open
func (m *PrometheusMetrics) RecordCircuitState(breaker, state string) {
	var stateValue float64
	switch state {
	case "closed":
		stateValue = 0
	case "open":
		stateValue = 1
	case "half-open":
		stateValue = 2
	default:
		// Unknown state, default to closed
		stateValue = 0
	}
	m.circuitState.WithLabelValues(breaker).Set(stateValue)
}
