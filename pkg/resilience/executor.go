package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation is an opaque asynchronous unit of work run through an Executor.
// The executor has no knowledge of what the operation does (session launch,
// navigation, file I/O, network call). Operations should fail with a
// *Failure, or an error wrapping one, so the retry policy can categorize
// the failure; uncategorized errors are treated as non-retryable.
type Operation func(ctx context.Context) error

// ExecutorConfig holds the collaborators of an Executor.
type ExecutorConfig struct {
	// Name identifies the operation type in logs, metrics and errors.
	Name string

	// Policy governs the attempt loop. Required to be valid.
	Policy RetryPolicy

	// Breaker guards admission. Required; one breaker per protected
	// resource, possibly shared with other executors.
	Breaker *CircuitBreaker

	// Logger for attempt events. Default: slog.Default()
	Logger *slog.Logger

	// Metrics for attempt/outcome recording. Default: NoOpMetrics
	Metrics Metrics
}

// Executor composes a RetryPolicy and a CircuitBreaker to run one
// operation end to end. It is stateless across calls beyond delegating to
// its two collaborators and is safe for concurrent use; many Run calls can
// be in flight at once against the same breaker.
type Executor struct {
	name    string
	policy  RetryPolicy
	breaker *CircuitBreaker
	logger  *slog.Logger
	metrics Metrics
}

// NewExecutor creates an Executor from the given configuration.
// It fails if the policy is invalid or the breaker is missing.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("executor name must not be empty")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy for %s: %w", cfg.Name, err)
	}
	if cfg.Breaker == nil {
		return nil, fmt.Errorf("executor %s requires a circuit breaker", cfg.Name)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NoOpMetrics{}
	}

	return &Executor{
		name:    cfg.Name,
		policy:  cfg.Policy,
		breaker: cfg.Breaker,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Run executes the operation with circuit breaker admission and
// policy-driven retries. It is the only entry point; every await happens
// inside, so callers cannot accidentally discard an in-flight attempt.
//
// Outcomes, each distinguishable by the caller:
//   - nil: the operation succeeded
//   - ErrCircuitOpen (wrapped): rejected without invoking the operation;
//     no retry attempt is consumed
//   - *NonRetryableError: the first non-retryable failure ended the loop
//   - *ExhaustedError: all attempts were made and the last one failed
//   - the context error (wrapped): the caller canceled during a backoff wait
//
// Every invoked attempt records exactly one outcome on the breaker,
// including attempts that fail because the caller's context was canceled
// mid-flight; a wait canceled between attempts records nothing.
func (e *Executor) Run(ctx context.Context, op Operation) error {
	if err := e.breaker.Allow(); err != nil {
		e.metrics.RecordOutcome(e.name, "rejected")
		e.addSpanEvent(ctx, "resilience.rejected", 0)
		e.logger.Debug("call rejected by circuit breaker",
			slog.String("op", e.name),
			slog.String("circuit", e.breaker.Name()))
		return fmt.Errorf("%s: %w", e.name, err)
	}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)

		if lastErr == nil {
			e.breaker.RecordSuccess()
			e.metrics.RecordAttempt(e.name, "success")
			e.metrics.RecordOutcome(e.name, "success")
			if attempt > 1 {
				e.logger.Info("operation succeeded after retry",
					slog.String("op", e.name),
					slog.Int("attempt", attempt))
			}
			return nil
		}

		e.breaker.RecordFailure()
		e.metrics.RecordAttempt(e.name, "failure")

		if !e.policy.IsRetryable(lastErr) {
			e.metrics.RecordOutcome(e.name, "non_retryable")
			e.logger.Warn("non-retryable failure, aborting",
				slog.String("op", e.name),
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return &NonRetryableError{Op: e.name, Attempts: attempt, Err: lastErr}
		}

		// Don't wait after the last attempt
		if attempt == e.policy.MaxAttempts {
			break
		}

		delay := addJitter(e.policy.Delay(attempt), e.policy.JitterFraction)
		e.metrics.ObserveRetryDelay(e.name, delay)
		e.addSpanEvent(ctx, "resilience.retry", attempt)
		e.logger.Warn("operation failed, retrying",
			slog.String("op", e.name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", e.policy.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		// Suspend cooperatively; the wait itself records no breaker outcome.
		if err := sleep(ctx, delay); err != nil {
			e.metrics.RecordOutcome(e.name, "aborted")
			return fmt.Errorf("%s: retry aborted after %d attempt(s): %w", e.name, attempt, err)
		}
	}

	e.metrics.RecordOutcome(e.name, "exhausted")
	return &ExhaustedError{Op: e.name, Attempts: e.policy.MaxAttempts, Err: lastErr}
}

// Do runs an operation that produces a value through the executor.
// On any failure the zero value is returned alongside the Run error.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Run(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// sleep waits for the given duration with context cancellation support.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addSpanEvent annotates the caller's trace span, if one is recording.
func (e *Executor) addSpanEvent(ctx context.Context, event string, attempt int) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("op", e.name)}
	if attempt > 0 {
		attrs = append(attrs, attribute.Int("attempt", attempt))
	}
	span.AddEvent(event, trace.WithAttributes(attrs...))
}
