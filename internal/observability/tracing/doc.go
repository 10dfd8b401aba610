// Package tracing provides OpenTelemetry tracing integration.
//
// It owns the daemon's global tracer and the HTTP middleware that traces
// the metrics and health endpoints.
//
// Example usage:
//
//	import "session-keeper/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.Init(context.Background())
//	    defer shutdown(context.Background())
//	}
//
//	func sweep(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "sweep-sessions")
//	    defer span.End()
//	    // ... close idle sessions ...
//	}
package tracing
