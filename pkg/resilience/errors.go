package resilience

import "fmt"

// ExhaustedError is returned when all permitted attempts were made and the
// operation failed on the last one. It carries the last underlying failure
// and the number of attempts consumed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted: %v", e.Op, e.Attempts, e.Err)
}

// Unwrap returns the last underlying failure.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// NonRetryableError is returned when a failure outside the policy's
// retryable kinds terminates the attempt loop, even if attempts remain.
type NonRetryableError struct {
	Op       string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("%s: non-retryable failure after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

// Unwrap returns the underlying failure.
func (e *NonRetryableError) Unwrap() error {
	return e.Err
}
