package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// retryPolicy bounds a retried call to GCP.
type retryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	attemptTimeout time.Duration
}

// defaultRetryPolicy re-runs a whole call at most once. The client libraries
// already retry transport errors inside each attempt.
var defaultRetryPolicy = retryPolicy{
	maxAttempts:    2,
	initialBackoff: time.Second,
	attemptTimeout: 20 * time.Second,
}

// withRetry runs op until it succeeds, doubling the backoff between attempts.
// Each attempt gets its own timeout; cancelling ctx stops the retries.
func withRetry(ctx context.Context, policy retryPolicy, name string, op func(ctx context.Context) error) error {
	backoff := policy.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= policy.maxAttempts; attempt++ {
		err := func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, policy.attemptTimeout)
			defer cancel()
			return op(attemptCtx)
		}()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == policy.maxAttempts {
			break
		}

		slog.Warn("Call failed, will retry.",
			"operation", name,
			"attempt", attempt,
			"maxAttempts", policy.maxAttempts,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "operation", name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, policy.maxAttempts, lastErr)
}
