// Package httputil provides retry primitives for remote registry calls.
//
// Failures fall into two classes: transient ones (timeouts, 5xx responses,
// rate limiting) that are worth retrying, and terminal ones (404, malformed
// payloads) that are not. Callers mark the transient class by wrapping the
// error in [RetryableError]; [Retry] leaves everything else alone.
package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as transient so [Retry] will attempt the
// operation again. Terminal failures must not be wrapped with this type.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with [RetryableError] anywhere
// in its chain.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry executes fn up to attempts times, sleeping delay between attempts
// and doubling it after each failure (1s, 2s, 4s, ...).
//
// Only errors marked with [RetryableError] consume retry budget; any other
// error is returned immediately. Within one Retry call the attempts are
// strictly ordered: attempt N+1 never starts before attempt N's backoff has
// elapsed. Returns ctx.Err() if the context is cancelled during a backoff.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff runs fn with the registry defaults: 3 attempts starting
// at a 1 second delay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
