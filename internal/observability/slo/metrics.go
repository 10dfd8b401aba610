package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the daemon.
// These targets are used to measure and monitor session reliability.
const (
	// RuntimeAvailabilitySLO defines the target fraction of time the
	// browser runtime circuit is closed (99.5%)
	RuntimeAvailabilitySLO = 99.5

	// LaunchLatencyP95SLO defines the target for 95th percentile session
	// launch latency in seconds
	LaunchLatencyP95SLO = 5.0

	// LaunchFailureRateSLO defines the maximum acceptable launch failure
	// rate as a ratio (1% = 0.01)
	LaunchFailureRateSLO = 0.01
)

// SLO tracking metrics
// These gauges are updated periodically (e.g., on every sweep tick) based on
// recent measurements to track whether the daemon is meeting its targets.
var (
	// RuntimeAvailability tracks the current runtime availability ratio (0-1),
	// 1 while the browser-runtime circuit is closed and 0 while it is open
	RuntimeAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_runtime_availability_ratio",
			Help: "Current browser runtime availability ratio (0-1), target: 0.995",
		},
	)

	// LaunchLatencyP95 tracks the current p95 session launch latency in seconds
	// calculated from the launch duration histogram
	LaunchLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_launch_latency_p95_seconds",
			Help: "Current p95 session launch latency in seconds, target: 5.0",
		},
	)

	// LaunchFailureRate tracks the current launch failure ratio (0-1)
	LaunchFailureRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_launch_failure_rate_ratio",
			Help: "Current session launch failure ratio (0-1), target: 0.01",
		},
	)
)

// UpdateRuntimeAvailability updates the runtime availability SLO metric.
// Call this periodically with 1 while the runtime circuit is closed or
// half-open, 0 while it is open.
func UpdateRuntimeAvailability(ratio float64) {
	RuntimeAvailability.Set(ratio)
}

// UpdateLaunchLatencyP95 updates the p95 launch latency SLO metric.
//
// Example using Prometheus query:
//
//	histogram_quantile(0.95, rate(resilience_retry_delay_seconds_bucket[5m]))
func UpdateLaunchLatencyP95(seconds float64) {
	LaunchLatencyP95.Set(seconds)
}

// UpdateLaunchFailureRate updates the launch failure rate SLO metric.
//
// Example calculation:
//
//	total := createSuccesses + createFailures
//	slo.UpdateLaunchFailureRate(float64(createFailures) / float64(total))
func UpdateLaunchFailureRate(ratio float64) {
	LaunchFailureRate.Set(ratio)
}
