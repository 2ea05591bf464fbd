package jj

import (
	"context"
	"errors"
	"fmt"
	"strings"

	revsyncerrors "revsync.dev/revsync/internal/errors"
)

// Field and record separators for jj log templates. Descriptions can contain
// anything printable, so the separators are control characters.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// logTemplate extracts the fields of Change for each revision. The separators
// are embedded as literal control characters since jj's template language has
// no hex escapes.
const logTemplate = "change_id ++ \"\x1f\" ++ commit_id ++ \"\x1f\" ++ parents.map(|c| c.change_id()).join(\" \") ++ \"\x1f\" ++ description ++ \"\x1e\""

// localClient implements Client against a colocated jj/git working copy.
type localClient struct {
	runner *CommandRunner
	remote string
	trunk  string
}

// NewClient creates a Client for the working copy at dir, pushing to remote
// and treating trunk as the shared upstream branch.
func NewClient(dir, remote, trunk string) Client {
	return &localClient{
		runner: NewCommandRunner(dir),
		remote: remote,
		trunk:  trunk,
	}
}

func (c *localClient) Resolve(ctx context.Context, revset string) (*Change, error) {
	changes, err := c.logChanges(ctx, revset)
	if err != nil {
		return nil, revsyncerrors.NewRevisionError(revset, classifyJJError(err))
	}
	switch len(changes) {
	case 0:
		return nil, revsyncerrors.NewRevisionError(revset, revsyncerrors.ErrNotFound)
	case 1:
		return changes[0], nil
	default:
		return nil, revsyncerrors.NewRevisionError(revset, revsyncerrors.ErrAmbiguousRevision)
	}
}

func (c *localClient) AncestorsBetween(ctx context.Context, base, head string) ([]*Change, error) {
	changes, err := c.logChanges(ctx, fmt.Sprintf("%s..%s", base, head))
	if err != nil {
		return nil, revsyncerrors.NewRevisionError(fmt.Sprintf("%s..%s", base, head), classifyJJError(err))
	}
	// jj log emits descendants first; the stack wants ancestor-first order.
	for i, j := 0, len(changes)-1; i < j; i, j = i+1, j-1 {
		changes[i], changes[j] = changes[j], changes[i]
	}
	return changes, nil
}

func (c *localClient) logChanges(ctx context.Context, revset string) ([]*Change, error) {
	output, err := c.runner.JJRaw(ctx, "log", "--no-graph", "-r", revset, "-T", logTemplate)
	if err != nil {
		return nil, err
	}

	var changes []*Change
	for _, record := range strings.Split(output, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 4)
		if len(fields) != 4 {
			continue
		}
		change := &Change{
			ID:          strings.TrimSpace(fields[0]),
			CommitID:    strings.TrimSpace(fields[1]),
			Description: fields[3],
		}
		// Only the first parent matters for stack wiring; merges cannot be
		// part of a reviewable stack.
		parents := strings.Fields(fields[2])
		if len(parents) > 0 {
			change.ParentID = parents[0]
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (c *localClient) TreeHash(ctx context.Context, changeID string) (string, error) {
	change, err := c.Resolve(ctx, changeID)
	if err != nil {
		return "", err
	}
	return c.CommitTree(ctx, change.CommitID)
}

func (c *localClient) CommitTree(ctx context.Context, commitID string) (string, error) {
	tree, err := c.runner.Git(ctx, "rev-parse", commitID+"^{tree}")
	if err != nil {
		return "", fmt.Errorf("commit %s: %w", commitID, revsyncerrors.ErrNotFound)
	}
	return tree, nil
}

func (c *localClient) SetDescription(ctx context.Context, changeID, text string) error {
	_, err := c.runner.JJWithInput(ctx, text, "describe", "-r", changeID, "--stdin")
	if err != nil {
		return classifyJJError(err)
	}
	return nil
}

func (c *localClient) PushBranch(ctx context.Context, opts PushOptions) (string, error) {
	tree, err := c.TreeHash(ctx, opts.ChangeID)
	if err != nil {
		return "", err
	}

	prev, err := c.RemoteBranchHead(ctx, opts.Branch)
	if err != nil {
		return "", err
	}

	if prev != "" {
		prevTree, err := c.CommitTree(ctx, prev)
		if err == nil && prevTree == tree {
			// Branch head already carries this snapshot.
			return prev, nil
		}
	}

	parent := prev
	if parent == "" {
		parent = opts.BaseCommit
	}

	args := []string{"commit-tree", tree}
	if parent != "" {
		args = append(args, "-p", parent)
	}
	args = append(args, "-m", opts.Message)
	sha, err := c.runner.Git(ctx, args...)
	if err != nil {
		return "", err
	}

	refspec := fmt.Sprintf("%s:refs/heads/%s", sha, opts.Branch)
	if _, err := c.runner.Git(ctx, "push", c.remote, refspec); err != nil {
		return "", classifyPushError(err)
	}

	// Keep the local tracking ref current so a re-run sees the push.
	trackingRef := fmt.Sprintf("refs/remotes/%s/%s", c.remote, opts.Branch)
	_, _ = c.runner.Git(ctx, "update-ref", trackingRef, sha)

	return sha, nil
}

func (c *localClient) RemoteBranchHead(ctx context.Context, branch string) (string, error) {
	ref := fmt.Sprintf("refs/remotes/%s/%s", c.remote, branch)
	head, err := c.runner.Git(ctx, "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		// rev-parse --verify exits nonzero for missing refs; a missing branch
		// is not an error here.
		return "", nil
	}
	return head, nil
}

func (c *localClient) TrunkHead(ctx context.Context) (string, error) {
	head, err := c.RemoteBranchHead(ctx, c.trunk)
	if err != nil {
		return "", err
	}
	if head == "" {
		return "", fmt.Errorf("trunk %s/%s: %w", c.remote, c.trunk, revsyncerrors.ErrDetachedBase)
	}
	return head, nil
}

func (c *localClient) DeleteRemoteBranchTracking(ctx context.Context, branch string) error {
	ref := fmt.Sprintf("refs/remotes/%s/%s", c.remote, branch)
	_, err := c.runner.Git(ctx, "update-ref", "-d", ref)
	return err
}

func (c *localClient) Fetch(ctx context.Context) error {
	if _, err := c.runner.JJ(ctx, "git", "fetch", "--remote", c.remote); err != nil {
		return classifyJJError(err)
	}
	return nil
}

// classifyJJError maps jj stderr patterns to the adapter failure taxonomy.
func classifyJJError(err error) error {
	var cmdErr *revsyncerrors.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "resolved to more than one revision"):
		return fmt.Errorf("%w: %s", revsyncerrors.ErrAmbiguousRevision, firstLine(cmdErr.Stderr))
	case strings.Contains(stderr, "doesn't exist"), strings.Contains(stderr, "no such revision"):
		return fmt.Errorf("%w: %s", revsyncerrors.ErrNotFound, firstLine(cmdErr.Stderr))
	case strings.Contains(stderr, "working copy is stale"), strings.Contains(stderr, "concurrent"):
		return fmt.Errorf("%w: %s", revsyncerrors.ErrWorkingCopyDirty, firstLine(cmdErr.Stderr))
	default:
		return err
	}
}

// classifyPushError maps git push failures to the adapter failure taxonomy.
func classifyPushError(err error) error {
	var cmdErr *revsyncerrors.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "[rejected]"), strings.Contains(stderr, "non-fast-forward"), strings.Contains(stderr, "stale info"):
		return fmt.Errorf("%w: %s", revsyncerrors.ErrPushRejected, firstLine(cmdErr.Stderr))
	case strings.Contains(stderr, "permission"), strings.Contains(stderr, "403"):
		return fmt.Errorf("%w: %s", revsyncerrors.ErrNoWriteAccess, firstLine(cmdErr.Stderr))
	case strings.Contains(stderr, "could not resolve host"), strings.Contains(stderr, "timed out"):
		return fmt.Errorf("%w: %s", revsyncerrors.ErrPlatformUnavailable, firstLine(cmdErr.Stderr))
	default:
		return err
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}
