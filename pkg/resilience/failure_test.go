package resilience

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
)

// timeoutNetError fakes a net.Error whose Timeout() reports true.
type timeoutNetError struct{}

func (e *timeoutNetError) Error() string   { return "i/o timeout" }
func (e *timeoutNetError) Timeout() bool   { return true }
func (e *timeoutNetError) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: KindUnknown,
		},
		{
			name: "categorized failure",
			err:  NewFailure(KindNavigation, "load failed"),
			want: KindNavigation,
		},
		{
			name: "wrapped categorized failure",
			err:  fmt.Errorf("navigate: %w", NewFailure(KindTimeout, "slow page")),
			want: KindTimeout,
		},
		{
			name: "network timeout",
			err:  &timeoutNetError{},
			want: KindTimeout,
		},
		{
			name: "ETIMEDOUT",
			err:  syscall.ETIMEDOUT,
			want: KindTimeout,
		},
		{
			name: "ECONNREFUSED",
			err:  syscall.ECONNREFUSED,
			want: KindConnection,
		},
		{
			name: "ECONNRESET",
			err:  syscall.ECONNRESET,
			want: KindConnection,
		},
		{
			name: "ENETUNREACH",
			err:  syscall.ENETUNREACH,
			want: KindConnection,
		},
		{
			name: "context canceled stays unknown",
			err:  context.Canceled,
			want: KindUnknown,
		},
		{
			name: "generic error",
			err:  errors.New("some error"),
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailure_Error(t *testing.T) {
	f := NewFailure(KindTimeout, "page load timed out")
	want := "timeout: page load timed out"

	if f.Error() != want {
		t.Errorf("expected %q, got %q", want, f.Error())
	}
}

func TestWrapFailure_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	f := WrapFailure(KindStorage, cause)

	if !errors.Is(f, cause) {
		t.Error("expected wrapped failure to match its cause with errors.Is")
	}
	if KindOf(f) != KindStorage {
		t.Errorf("KindOf() = %v, want %v", KindOf(f), KindStorage)
	}
}

func TestIsContextError(t *testing.T) {
	if !IsContextError(context.Canceled) {
		t.Error("expected context.Canceled to be a context error")
	}
	if !IsContextError(fmt.Errorf("wait: %w", context.DeadlineExceeded)) {
		t.Error("expected wrapped deadline error to be a context error")
	}
	if IsContextError(errors.New("boom")) {
		t.Error("expected generic error to not be a context error")
	}
}
