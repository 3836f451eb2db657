// Package retry wraps outbound calls in bounded exponential-backoff retry.
// Every third-party call site in the service goes through Do or Call so the
// backoff policy lives in exactly one place.
package retry

import (
	"context"
	"time"
)

// Policy configures a retry loop. The zero value performs a single attempt.
type Policy struct {
	// Retries is the number of additional attempts after the first.
	// Retries=3 means at most 4 total attempts.
	Retries int
	// BaseDelay is the delay before the first retry; attempt n waits
	// BaseDelay * 2^n.
	BaseDelay time.Duration
	// Retryable, when set, may veto further retries for a given error
	// (e.g. don't retry a 4xx, do retry timeouts and 5xx).
	Retryable func(err error) bool
	// OnRetry, when set, fires before each retry with the 1-based retry
	// number and the error that caused it.
	OnRetry func(attempt int, err error)
	// ZeroDelay collapses all sleeps while preserving attempt counts.
	// Test suites set this so retry semantics stay fast to exercise.
	ZeroDelay bool
}

// delay returns the forced delay before retry n (0-based).
func (p Policy) delay(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

// Do runs fn, retrying per the policy. It returns nil on the first success,
// the last error once retries are exhausted or vetoed, or ctx.Err() if the
// context ends mid-backoff.
func Do(ctx context.Context, p Policy, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= p.Retries {
			return lastErr
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}
		if !p.ZeroDelay {
			select {
			case <-time.After(p.delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Call is Do for functions that return a value alongside the error.
func Call[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
