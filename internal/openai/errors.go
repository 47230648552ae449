package openai

import (
	"errors"
	"fmt"
)

// UnavailableError covers transport failures, non-2xx responses, and
// provider-reported generation failures. Callers render it as a
// "temporarily out of capacity" message; the paid generation step is never
// retried automatically.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("video provider unavailable (%s): %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// TimeoutError means the poll budget was exhausted without the provider
// reaching a terminal state. Distinct from UnavailableError: the job may
// still complete server-side, so callers report a timeout rather than a
// failure.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("video generation still running after %d status checks", e.Attempts)
}

func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}

func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
