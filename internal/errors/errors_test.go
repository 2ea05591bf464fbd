package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	revsyncerrors "revsync.dev/revsync/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want revsyncerrors.Class
	}{
		{revsyncerrors.ErrNotFound, revsyncerrors.ClassValidation},
		{revsyncerrors.ErrOutOfOrderLanding, revsyncerrors.ClassValidation},
		{revsyncerrors.ErrStalePullRequest, revsyncerrors.ClassConflict},
		{revsyncerrors.ErrPushRejected, revsyncerrors.ClassConflict},
		{revsyncerrors.ErrPlatformUnavailable, revsyncerrors.ClassTransient},
		{revsyncerrors.ErrNoWriteAccess, revsyncerrors.ClassPermission},
		{fmt.Errorf("wrapped: %w", revsyncerrors.ErrMergeConflict), revsyncerrors.ClassConflict},
		{fmt.Errorf("unknown failure"), revsyncerrors.ClassValidation},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, revsyncerrors.Classify(tt.err), "classifying %v", tt.err)
	}

	require.True(t, revsyncerrors.IsTransient(revsyncerrors.ErrPlatformUnavailable))
	require.False(t, revsyncerrors.IsTransient(revsyncerrors.ErrMergeConflict))
	require.True(t, revsyncerrors.IsConflict(revsyncerrors.ErrStalePullRequest))
}

func TestSyncErrorUnwrap(t *testing.T) {
	err := revsyncerrors.NewSyncError("xyz", "revsync/xyz", 7, revsyncerrors.ErrStalePullRequest)
	require.ErrorIs(t, err, revsyncerrors.ErrStalePullRequest)
	require.Contains(t, err.Error(), "xyz")
	require.Contains(t, err.Error(), "PR #7")
}

func TestCommandErrorIncludesStderr(t *testing.T) {
	err := revsyncerrors.NewCommandError("jj", []string{"log"}, "", "revset resolved to no commits", nil)
	require.Contains(t, err.Error(), "jj command failed")
	require.Contains(t, err.Error(), "revset resolved to no commits")
}
