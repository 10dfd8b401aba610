package metrics

import "time"

// RecordSessionCreated records the outcome of a session creation attempt.
// Result should be "success", "failure", or "rejected".
func RecordSessionCreated(result string) {
	SessionsCreatedTotal.WithLabelValues(result).Inc()
}

// RecordSessionClosed records a session close together with its lifetime.
// Reason should be "requested", "idle", or "shutdown".
func RecordSessionClosed(reason string, lifetime time.Duration) {
	SessionsClosedTotal.WithLabelValues(reason).Inc()
	if lifetime > 0 {
		SessionLifetime.Observe(lifetime.Seconds())
	}
}

// RecordNavigation records the result of a navigation operation.
func RecordNavigation(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	NavigationsTotal.WithLabelValues(result).Inc()
}

// UpdateSessionsActive updates the live-session gauge. Call this whenever
// the registry size changes.
func UpdateSessionsActive(count int) {
	SessionsActive.Set(float64(count))
}

// RecordSweep records one idle-session sweep.
func RecordSweep(closed int, duration time.Duration) {
	SweepRunsTotal.Inc()
	SweepClosedTotal.Add(float64(closed))
	SweepDuration.Observe(duration.Seconds())
}

// RecordSnapshotRestored records a snapshot restore outcome.
func RecordSnapshotRestored(restored bool) {
	result := "restored"
	if !restored {
		result = "dropped"
	}
	SnapshotsRestoredTotal.WithLabelValues(result).Inc()
}

// RecordStorageOperation records the duration of a snapshot storage
// operation. Operation should describe the call (e.g., "store", "load").
func RecordStorageOperation(operation string, duration time.Duration) {
	StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
