// Package observability provides the daemon's observability infrastructure:
// structured logging and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - tracing: OpenTelemetry tracer setup
//
// Example usage:
//
//	import "session-keeper/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("daemon started")
//	}
package observability
