// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the daemon's application metrics including:
//   - Session lifecycle metrics (created, closed, active)
//   - Sweep metrics (runs, sessions reclaimed, duration)
//   - Snapshot storage metrics (operations, restore results)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "session-keeper/internal/observability/metrics"
//
//	func sweep(ctx context.Context) {
//	    start := time.Now()
//	    closed, _ := manager.Sweep(ctx)
//	    metrics.RecordSweep(closed, time.Since(start))
//	}
package metrics
