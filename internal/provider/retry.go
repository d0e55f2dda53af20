package provider

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of tries, not extra retries.
	DefaultMaxAttempts = 3
	DefaultBackoff     = 500 * time.Millisecond
)

// Retry runs fn up to maxAttempts times, sleeping with exponential backoff
// between tries. Only retryable APIErrors (429/5xx) are retried; everything
// else fails immediately. Context cancellation stops the loop.
func Retry(ctx context.Context, maxAttempts int, backoff time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff << (attempt - 1)):
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}
	}
	return err
}
