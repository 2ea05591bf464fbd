package github

import (
	"context"
	"time"

	revsyncerrors "revsync.dev/revsync/internal/errors"
)

const maxAttempts = 3

// retryBaseDelay is a variable so tests can shrink it.
var retryBaseDelay = 500 * time.Millisecond

// withRetry runs fn, retrying transient failures with bounded exponential
// backoff. Validation, conflict and permission failures surface immediately.
func withRetry(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !revsyncerrors.IsTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
