package session

import "context"

// Runtime is the boundary to the underlying browser engine. Implementations
// key every call by session identifier and must be safe for concurrent use.
type Runtime interface {
	// Launch starts a browser instance for the session.
	Launch(ctx context.Context, id string) error

	// Navigate drives the session's browser to the given URL.
	Navigate(ctx context.Context, id, url string) error

	// Close shuts down the session's browser instance. Closing a session
	// the runtime no longer knows about is not an error.
	Close(ctx context.Context, id string) error
}

// NoopRuntime is a Runtime that does nothing. Used when the daemon runs
// without a browser engine attached, and as a base for test doubles.
type NoopRuntime struct{}

// NewNoopRuntime creates a runtime that accepts every call.
func NewNoopRuntime() *NoopRuntime {
	return &NoopRuntime{}
}

func (*NoopRuntime) Launch(ctx context.Context, id string) error { return nil }

func (*NoopRuntime) Navigate(ctx context.Context, id, url string) error { return nil }

func (*NoopRuntime) Close(ctx context.Context, id string) error { return nil }
