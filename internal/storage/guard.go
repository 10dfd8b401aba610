package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"session-keeper/internal/observability/metrics"
)

// GuardConfig holds the configuration for the storage circuit breaker.
type GuardConfig struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear success/failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio threshold to trip the circuit
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32
}

// DefaultGuardConfig returns configuration tuned for local persistence.
// Opens on sustained failure of the backing store, 30 second timeout.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Name:             "session-store",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// Guarded wraps an Adapter with circuit breaker protection so a failing
// backing store stops being hammered. When the circuit is open every
// operation fails immediately with gobreaker.ErrOpenState; callers treat
// that as degraded persistence, never as a fatal condition.
type Guarded struct {
	next Adapter
	cb   *gobreaker.CircuitBreaker
}

// NewGuarded wraps next with a circuit breaker using the given
// configuration.
func NewGuarded(next Adapter, cfg GuardConfig) *Guarded {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("storage circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// Missing keys are a normal answer, not a store failure.
			return err == nil || isBenign(err)
		},
	}

	return &Guarded{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// isBenign reports whether an adapter error says the store is healthy but
// the request was unsatisfiable.
func isBenign(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidKey):
		return true
	default:
		return false
	}
}

// Store persists a value with circuit breaker protection.
func (g *Guarded) Store(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.next.Store(ctx, key, value)
	})
	metrics.RecordStorageOperation("store", time.Since(start))
	return err
}

// Load reads a value with circuit breaker protection.
func (g *Guarded) Load(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Load(ctx, key)
	})
	metrics.RecordStorageOperation("load", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Delete removes a key with circuit breaker protection.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	start := time.Now()
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.next.Delete(ctx, key)
	})
	metrics.RecordStorageOperation("delete", time.Since(start))
	return err
}

// List enumerates keys with circuit breaker protection.
func (g *Guarded) List(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.List(ctx, pattern)
	})
	metrics.RecordStorageOperation("list", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// State returns the current state of the circuit breaker.
func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}

// IsOpen returns true if the circuit breaker is in the open state.
func (g *Guarded) IsOpen() bool {
	return g.cb.State() == gobreaker.StateOpen
}
