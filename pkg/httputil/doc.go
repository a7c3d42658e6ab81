// Package httputil fetches remote screenshots.
//
// # Fetching
//
// [Fetch] performs a GET with a byte limit and classifies failures: network
// errors, 429 and 5xx responses are wrapped in [RetryableError], while other
// 4xx responses fail immediately. Responses larger than the limit fail with
// [ErrTooLarge].
//
//	data, err := httputil.FetchWithRetry(ctx, client, url, 20<<20)
//
// # Retry
//
// [Retry] runs a function with exponential backoff and only retries errors
// wrapped in [RetryableError]. A Retry-After sent with a 429 or 5xx stretches
// the next wait, up to [MaxRetryAfter]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    data, err = httputil.Fetch(ctx, client, url, limit)
//	    return err
//	})
//
// # Configuration
//
//   - Max attempts: [FetchAttempts]
//   - Base backoff: [FetchBackoff], doubling after each failure
//   - Default limit: [DefaultMaxBytes]
package httputil
