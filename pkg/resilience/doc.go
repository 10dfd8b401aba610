// Package resilience provides framework-agnostic retry and circuit breaker
// primitives for protecting calls to unreliable collaborators.
//
// This package implements three composable pieces:
//   - RetryPolicy: how many times and with what backoff a failed operation
//     is re-attempted, and which failure kinds are worth retrying
//   - CircuitBreaker: a consecutive-failure guard that stops invoking a
//     failing operation for a cooling-off period
//   - Executor: composes one policy and one breaker to run a single
//     operation end to end with a unified error contract
//
// Usage Example:
//
//	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
//	    Name:             "browser-runtime",
//	    FailureThreshold: 5,
//	    ResetTimeout:     30 * time.Second,
//	})
//	exec, err := resilience.NewExecutor(resilience.ExecutorConfig{
//	    Name:    "launch",
//	    Policy:  resilience.LaunchPolicy(),
//	    Breaker: breaker,
//	})
//	if err != nil {
//	    return err
//	}
//	err = exec.Run(ctx, func(ctx context.Context) error {
//	    return runtime.Launch(ctx, id)
//	})
package resilience
