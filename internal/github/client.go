// Package github provides the hosting-platform adapter for revsync, backed by
// the GitHub REST API with one GraphQL mutation for draft toggling.
package github

import (
	"context"
)

// PullRequestInfo contains information about a pull request.
// This is a simplified struct to avoid coupling callers to the go-github library.
type PullRequestInfo struct {
	Number   int
	NodeID   string
	HTMLURL  string
	Title    string
	Body     string
	State    string // "open", "closed"
	Merged   bool
	Draft    bool
	Base     string
	Head     string
	HeadSHA  string
	Approved bool
	// Approvers lists users with an approving review, in review order.
	Approvers []string
	// ChecksPassing and ChecksPending summarize check runs for the head commit.
	ChecksPassing bool
	ChecksPending bool
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title     string
	Body      string
	Head      string
	Base      string
	Draft     bool
	Reviewers []string
}

// UpdatePROptions contains options for updating a pull request. Nil fields are
// left untouched.
type UpdatePROptions struct {
	Title *string
	Body  *string
	Base  *string
	Draft *bool
	State *string
}

// Client is the hosting adapter consumed by the sync engine. Implementations
// classify failures with the sentinels in internal/errors: ErrNotFound,
// ErrNoWriteAccess, ErrPlatformUnavailable, ErrMergeConflict. Transient
// failures are retried with bounded backoff inside the implementation.
type Client interface {
	// CreatePullRequest creates a new pull request
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error)

	// UpdatePullRequest updates an existing pull request
	UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error

	// GetPullRequest fetches the current state of a pull request, including
	// approval and check status
	GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error)

	// GetPullRequestByBranch fetches the pull request whose head is branch, or
	// nil if none exists
	GetPullRequestByBranch(ctx context.Context, branch string) (*PullRequestInfo, error)

	// SquashMerge squash-merges a pull request, using commitTitle and
	// commitBody for the resulting single commit. Returns the merge commit.
	SquashMerge(ctx context.Context, number int, commitTitle, commitBody string) (string, error)

	// DeleteBranch deletes a remote branch
	DeleteBranch(ctx context.Context, name string) error

	// AddComment appends a comment to a pull request's discussion
	AddComment(ctx context.Context, number int, text string) error
}
