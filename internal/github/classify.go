package github

import (
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"

	revsyncerrors "revsync.dev/revsync/internal/errors"
)

// classifyError maps go-github failures onto the shared error taxonomy so the
// retry policy and callers can react by class instead of by status code.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case *github.RateLimitError, *github.AbuseRateLimitError:
		return fmt.Errorf("%w: %v", revsyncerrors.ErrPlatformUnavailable, err)
	case *github.ErrorResponse:
		if e.Response == nil {
			return fmt.Errorf("%w: %v", revsyncerrors.ErrPlatformUnavailable, err)
		}
		switch e.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", revsyncerrors.ErrNoWriteAccess, err)
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %v", revsyncerrors.ErrNotFound, err)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", revsyncerrors.ErrPlatformUnavailable, err)
		}
		return err
	default:
		// Anything that never reached the API (DNS, connection reset) is
		// network-class and worth a bounded retry.
		return fmt.Errorf("%w: %v", revsyncerrors.ErrPlatformUnavailable, err)
	}
}

// classifyMergeError is classifyError plus the merge-specific responses: 405
// means the PR is not mergeable and 409 means the head moved under us.
func classifyMergeError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*github.ErrorResponse); ok && e.Response != nil {
		switch e.Response.StatusCode {
		case http.StatusMethodNotAllowed:
			return fmt.Errorf("%w: %v", revsyncerrors.ErrMergeConflict, err)
		case http.StatusConflict:
			return fmt.Errorf("%w: %v", revsyncerrors.ErrStalePullRequest, err)
		}
	}
	return classifyError(err)
}
