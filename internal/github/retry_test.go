package github

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	revsyncerrors "revsync.dev/revsync/internal/errors"
)

func TestWithRetry(t *testing.T) {
	prev := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = prev })

	t.Run("transient failures are retried", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("502: %w", revsyncerrors.ErrPlatformUnavailable)
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), func() error {
			calls++
			return fmt.Errorf("still down: %w", revsyncerrors.ErrPlatformUnavailable)
		})
		require.ErrorIs(t, err, revsyncerrors.ErrPlatformUnavailable)
		require.Equal(t, maxAttempts, calls)
	})

	t.Run("non-transient failures surface immediately", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), func() error {
			calls++
			return fmt.Errorf("merge blocked: %w", revsyncerrors.ErrMergeConflict)
		})
		require.ErrorIs(t, err, revsyncerrors.ErrMergeConflict)
		require.Equal(t, 1, calls)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := withRetry(ctx, func() error {
			return fmt.Errorf("503: %w", revsyncerrors.ErrPlatformUnavailable)
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}
