package resilience

import (
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy holds the configuration for retry logic.
//
// A policy is constructed once per logical operation type and is immutable
// afterwards; it is safe to share one policy across concurrent Executors.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// BackoffFactor is the multiplier applied to the delay after each
	// failed attempt (exponential backoff). Must be >= 1.
	BackoffFactor float64

	// MaxDelay is the upper bound on any computed delay.
	MaxDelay time.Duration

	// JitterFraction is the fraction of delay to add as random jitter
	// (0.0 to 1.0) when waiting between attempts. Jitter is applied by
	// the Executor at wait time; Delay itself stays deterministic.
	JitterFraction float64

	// RetryableKinds lists the failure categories worth retrying.
	// Failures of any other kind, including uncategorized ones, abort
	// the attempt loop immediately.
	RetryableKinds []FailureKind
}

// DefaultPolicy returns a general-purpose retry policy.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      500 * time.Millisecond,
		BackoffFactor:  2.0,
		MaxDelay:       60 * time.Second,
		JitterFraction: 0.1,
		RetryableKinds: []FailureKind{KindTimeout, KindConnection},
	}
}

// LaunchPolicy returns a policy tuned for browser session launches.
// Launches are expensive, so attempts are few with generous delays.
func LaunchPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      1 * time.Second,
		BackoffFactor:  2.0,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.1,
		RetryableKinds: []FailureKind{KindTimeout, KindConnection},
	}
}

// NavigationPolicy returns a policy tuned for page navigations.
// Aggressive retry for transient network and load failures.
func NavigationPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		BaseDelay:      1 * time.Second,
		BackoffFactor:  2.0,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.1,
		RetryableKinds: []FailureKind{KindTimeout, KindConnection, KindNavigation},
	}
}

// StoragePolicy returns a policy tuned for persistence operations.
// Fast retry for transient I/O issues.
func StoragePolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      100 * time.Millisecond,
		BackoffFactor:  2.0,
		MaxDelay:       1 * time.Second,
		JitterFraction: 0.1,
		RetryableKinds: []FailureKind{KindTimeout, KindStorage},
	}
}

// Validate checks the policy invariants.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay must be non-negative, got %v", p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("max delay must be non-negative, got %v", p.MaxDelay)
	}
	if p.BackoffFactor < 1 {
		return fmt.Errorf("backoff factor must be at least 1, got %f", p.BackoffFactor)
	}
	if p.JitterFraction < 0 || p.JitterFraction > 1 {
		return fmt.Errorf("jitter fraction must be between 0 and 1, got %f", p.JitterFraction)
	}
	return nil
}

// Delay returns the wait before the retry that follows the given attempt.
//
// The sequence is BaseDelay * BackoffFactor^(attempt-1), capped at MaxDelay,
// so it is non-decreasing and bounded. Attempt numbering starts at 1.
// The function is pure; jitter is added separately at wait time.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay)
	limit := float64(p.MaxDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.BackoffFactor
		if delay >= limit {
			return p.MaxDelay
		}
	}
	if delay > limit {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// IsRetryable determines whether a failure is worth retrying under this
// policy. Context cancellation is never retryable. Failures whose kind is
// not listed in RetryableKinds, including uncategorized failures, are not
// retried: unknown failures are assumed to not be transient.
func (p RetryPolicy) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsContextError(err) {
		return false
	}

	kind := KindOf(err)
	for _, k := range p.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
	// Cryptographic randomness is not required for retry backoff jitter.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
