package livelang

import (
	"context"
	"errors"
	"time"
)

// RetryConfig is the backoff policy for calls to the save endpoint.
type RetryConfig struct {
	MaxRetries int           // attempts after the first one
	BaseDelay  time.Duration // wait before the first retry, doubled for each later one
	MaxDelay   time.Duration // cap on any single wait, including a server's Retry-After
}

// DefaultRetryConfig returns the retry policy used for save calls. An editor
// waits on the result, so the whole budget stays well under ten seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// delay returns the wait before retry number attempt (zero based). A server
// asking for a specific wait is honoured up to MaxDelay.
func (c RetryConfig) delay(attempt int, err error) time.Duration {
	d := c.BaseDelay << attempt
	var remote *RemoteError
	if errors.As(err, &remote) && remote.RetryAfter > 0 {
		d = remote.RetryAfter
	}
	if c.MaxDelay > 0 && (d > c.MaxDelay || d < 0) {
		d = c.MaxDelay
	}
	return d
}

// RetryFunc is one attempt of a retried call.
type RetryFunc[T any] func() (T, error)

// WithRetry runs fn until it succeeds, fails with an error IsRetryable
// rejects, runs out of attempts, or ctx is done. The last error is returned.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		switch {
		case err == nil:
			return result, nil
		case attempt >= cfg.MaxRetries || !IsRetryable(err):
			return zero, err
		}

		timer := time.NewTimer(cfg.delay(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether err is a save failure worth repeating: a
// network error, a server error or a rate limit. Cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var remote *RemoteError
	return errors.As(err, &remote) && remote.Retryable
}
