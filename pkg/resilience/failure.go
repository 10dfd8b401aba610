package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// FailureKind categorizes an operation failure for retry decisions.
type FailureKind string

const (
	// KindTimeout indicates the operation did not complete in time.
	KindTimeout FailureKind = "timeout"

	// KindConnection indicates the remote endpoint could not be reached
	// or dropped the connection.
	KindConnection FailureKind = "connection"

	// KindNavigation indicates a page navigation failed (bad URL, load error).
	KindNavigation FailureKind = "navigation"

	// KindProtocol indicates the remote endpoint answered with something
	// the caller could not interpret.
	KindProtocol FailureKind = "protocol"

	// KindStorage indicates a persistence operation failed.
	KindStorage FailureKind = "storage"

	// KindInternal indicates a bug or invariant violation on our side.
	KindInternal FailureKind = "internal"

	// KindUnknown is reported for errors that carry no category.
	// Unknown failures are never retried.
	KindUnknown FailureKind = "unknown"
)

// Failure is a categorized operation error. Operations run through an
// Executor should fail with a *Failure (or an error wrapping one) so the
// retry policy can decide whether the failure is transient.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// NewFailure creates a categorized failure without an underlying cause.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// WrapFailure categorizes an existing error.
func WrapFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Message: err.Error(), Err: err}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying cause, if any.
func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf classifies an error into a FailureKind.
//
// Classification order:
//  1. A *Failure anywhere in the chain wins.
//  2. Network timeouts map to KindTimeout.
//  3. Common syscall-level connection errors map to KindConnection.
//  4. Everything else is KindUnknown.
//
// Context cancellation is deliberately left as KindUnknown: retrying inside
// a context the caller already gave up on is never useful, and IsRetryable
// rejects context errors before kind lookup anyway.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ETIMEDOUT) {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return KindConnection
	}

	return KindUnknown
}

// IsContextError reports whether err is a cancellation or deadline error
// from the caller's context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
