package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ChartEngineError struct {
	Message string
	Cause   error
}

func (e *ChartEngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ChartEngineError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds for type assertions.
//
// MalformedPointError: ingest rejected a chunk; store state untouched.
// FetchFailedError: history fetch failed; surfaced for user-visible reporting.
// FetchCancelledError: superseded or torn-down fetch; expected, never shown.
// SubscriptionError: live feed died; feed is stopped until restarted.
type MalformedPointError struct{ ChartEngineError }
type FetchFailedError struct{ ChartEngineError }
type FetchCancelledError struct{ ChartEngineError }
type SubscriptionError struct{ ChartEngineError }
type ConfigurationError struct{ ChartEngineError }
type DatabaseError struct{ ChartEngineError }
type NetworkError struct{ ChartEngineError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewMalformedPointError(msg string, cause error) error {
	return &MalformedPointError{ChartEngineError{Message: msg, Cause: cause}}
}

func NewFetchFailedError(msg string, cause error) error {
	return &FetchFailedError{ChartEngineError{Message: msg, Cause: cause}}
}

func NewFetchCancelledError(msg string, cause error) error {
	return &FetchCancelledError{ChartEngineError{Message: msg, Cause: cause}}
}

func NewSubscriptionError(msg string, cause error) error {
	return &SubscriptionError{ChartEngineError{Message: msg, Cause: cause}}
}

func NewConfigurationError(msg string, cause error) error {
	return &ConfigurationError{ChartEngineError{Message: msg, Cause: cause}}
}

func NewDatabaseError(msg string, cause error) error {
	return &DatabaseError{ChartEngineError{Message: msg, Cause: cause}}
}

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{ChartEngineError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

// IsFetchCancelled reports whether err is the silent supersession/teardown
// path, directly or via a wrapped context cancellation.
func IsFetchCancelled(err error) bool {
	var fc *FetchCancelledError
	if errors.As(err, &fc) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// -----------------------------------------------------------------------------

func IsMalformedPoint(err error) bool {
	var mp *MalformedPointError
	return errors.As(err, &mp)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times
// with exponential backoff. Startup infrastructure only (provider connects);
// history fetches are never retried here.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		fmt.Printf("Warning: Attempt %d/%d failed for %s: %v. Retrying in %v\n", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return nil, lastErr
}
