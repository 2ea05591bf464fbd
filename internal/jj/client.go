package jj

import "context"

// PushOptions describes one additive branch push.
type PushOptions struct {
	// Branch is the remote branch name to push to.
	Branch string

	// ChangeID identifies the change whose content snapshot is pushed.
	ChangeID string

	// BaseCommit is the commit the first branch commit is parented on when the
	// branch does not exist yet (the base branch head).
	BaseCommit string

	// Message is the commit message for the pushed commit.
	Message string
}

// Client is the version-control adapter consumed by the sync engine.
// Implementations must classify failures using the sentinels in
// internal/errors: ErrNotFound, ErrAmbiguousRevision, ErrWorkingCopyDirty,
// ErrPushRejected, ErrDetachedBase.
type Client interface {
	// Resolve resolves a revset expression to exactly one change.
	Resolve(ctx context.Context, revset string) (*Change, error)

	// AncestorsBetween returns the changes reachable from head but not from
	// base, in ancestor-first order. The base itself is excluded.
	AncestorsBetween(ctx context.Context, base, head string) ([]*Change, error)

	// TreeHash returns the content snapshot hash of a change.
	TreeHash(ctx context.Context, changeID string) (string, error)

	// CommitTree returns the content snapshot hash behind an arbitrary commit.
	CommitTree(ctx context.Context, commitID string) (string, error)

	// SetDescription rewords a change in place.
	SetDescription(ctx context.Context, changeID, text string) error

	// PushBranch pushes a change's content snapshot to a remote branch,
	// creating the branch if absent. The push is additive: when the branch
	// already exists the snapshot is appended as a new commit on top of the
	// existing head, never rewriting history. Returns the new branch head.
	PushBranch(ctx context.Context, opts PushOptions) (string, error)

	// RemoteBranchHead returns the last-fetched head of a remote branch, or ""
	// if the branch does not exist.
	RemoteBranchHead(ctx context.Context, branch string) (string, error)

	// TrunkHead returns the last-fetched head of the trunk branch. Fails with
	// ErrDetachedBase when trunk is not present on the remote tracking store.
	TrunkHead(ctx context.Context) (string, error)

	// DeleteRemoteBranchTracking drops the local tracking ref for a deleted
	// remote branch so later existence checks do not see a ghost.
	DeleteRemoteBranchTracking(ctx context.Context, branch string) error

	// Fetch refreshes remote tracking state.
	Fetch(ctx context.Context) error
}
