// Package metrics provides centralized Prometheus metrics for the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session metrics track the lifecycle of managed browser sessions
var (
	// SessionsActive tracks the number of currently live sessions
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of currently live browser sessions",
		},
	)

	// SessionsCreatedTotal counts sessions created by result
	SessionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of session creation attempts",
		},
		[]string{"result"}, // result: success, failure, rejected
	)

	// SessionsClosedTotal counts sessions closed by reason
	SessionsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_closed_total",
			Help: "Total number of sessions closed",
		},
		[]string{"reason"}, // reason: requested, idle, shutdown
	)

	// NavigationsTotal counts navigations by result
	NavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navigations_total",
			Help: "Total number of navigation operations",
		},
		[]string{"result"},
	)

	// SessionLifetime measures how long sessions live before closing
	SessionLifetime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_lifetime_seconds",
			Help:    "Session lifetime from creation to close",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

// Sweep metrics track the idle-session reaper
var (
	// SweepRunsTotal counts sweep executions
	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Total number of idle-session sweeps",
		},
	)

	// SweepClosedTotal counts sessions reclaimed by sweeps
	SweepClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_closed_total",
			Help: "Total number of sessions closed by sweeps",
		},
	)

	// SweepDuration measures how long a sweep takes
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Time taken by one idle-session sweep",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// Snapshot metrics track the persistence layer
var (
	// SnapshotsRestoredTotal counts snapshot restore outcomes
	SnapshotsRestoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshots_restored_total",
			Help: "Total number of snapshot restore attempts",
		},
		[]string{"result"}, // result: restored, dropped
	)

	// StorageOperationDuration measures snapshot storage operation duration
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Snapshot storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"operation"},
	)
)
