package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Screenshot fetch retry policy.
const (
	FetchAttempts = 3
	FetchBackoff  = time.Second
	// MaxRetryAfter caps the wait an image host may request.
	MaxRetryAfter = 10 * time.Second
)

// RetryableError marks a failed screenshot fetch as worth another attempt:
// network errors, truncated bodies, 429 and 5xx responses. After is the
// wait the image host asked for via Retry-After, if any.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times. Only [RetryableError] is retried.
// The wait doubles after each failure and is stretched to a requested
// Retry-After, capped at MaxRetryAfter. It returns the last error, or
// ctx.Err() if the context ends while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		var rerr *RetryableError
		if !errors.As(err, &rerr) {
			return err
		}

		if i < attempts-1 {
			wait := max(delay, min(rerr.After, MaxRetryAfter))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is [Retry] with the screenshot fetch policy.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, FetchAttempts, FetchBackoff, fn)
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP
// date. Missing or unparseable values yield zero.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
