// Package testhelper provides in-memory fakes for the version-control and
// hosting adapters, so engine tests can run without a working copy or network.
package testhelper

import (
	"context"
	"fmt"

	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/jj"
)

// FakeJJ is an in-memory jj.Client over a single linear chain of changes.
type FakeJJ struct {
	// Chain holds the changes in ancestor-first order, excluding trunk.
	Chain []*jj.Change

	// Aliases maps revset expressions (e.g. "@-") to change identifiers.
	Aliases map[string]string

	// Ambiguous lists revsets that resolve to more than one head.
	Ambiguous map[string]bool

	// Trees maps change identifiers to content snapshot hashes. Unset entries
	// default to "tree-" + id.
	Trees map[string]string

	// CommitTrees maps commit identifiers to snapshot hashes. Pushed commits
	// are recorded here automatically.
	CommitTrees map[string]string

	// Remote maps branch names to their pushed heads.
	Remote map[string]string

	// Trunk names the trunk branch; NoTrunk simulates a missing remote trunk.
	Trunk       string
	TrunkCommit string
	NoTrunk     bool

	// Pushes records every PushBranch call that resulted in a new commit.
	Pushes []jj.PushOptions

	// Parents maps each pushed head to the commit it was parented on: the
	// previous branch head when the branch existed, the base commit otherwise.
	Parents map[string]string

	// PushErr, when set, fails the next PushBranch call.
	PushErr error

	// DescribeCalls records SetDescription calls as changeID -> latest text.
	DescribeCalls map[string]string

	Fetches int
	pushSeq int
}

// NewFakeJJ creates a fake with a trunk named main and an empty chain.
func NewFakeJJ() *FakeJJ {
	return &FakeJJ{
		Aliases:       make(map[string]string),
		Ambiguous:     make(map[string]bool),
		Trees:         make(map[string]string),
		CommitTrees:   make(map[string]string),
		Remote:        make(map[string]string),
		Parents:       make(map[string]string),
		DescribeCalls: make(map[string]string),
		Trunk:         "main",
		TrunkCommit:   "trunk-commit",
	}
}

// AddChange appends a change to the chain, wiring its parent to the previous
// entry and registering its commit and tree hashes.
func (f *FakeJJ) AddChange(id, description string) *jj.Change {
	change := &jj.Change{
		ID:          id,
		CommitID:    "commit-" + id,
		Description: description,
	}
	if len(f.Chain) > 0 {
		change.ParentID = f.Chain[len(f.Chain)-1].ID
	}
	f.Chain = append(f.Chain, change)
	f.Trees[id] = "tree-" + id
	f.CommitTrees[change.CommitID] = "tree-" + id
	return change
}

// Amend gives a change new content, simulating a local edit.
func (f *FakeJJ) Amend(id string) {
	tree := f.Trees[id] + "'"
	f.Trees[id] = tree
	for _, change := range f.Chain {
		if change.ID == id {
			change.CommitID = change.CommitID + "'"
			f.CommitTrees[change.CommitID] = tree
		}
	}
}

func (f *FakeJJ) find(id string) *jj.Change {
	for _, change := range f.Chain {
		if change.ID == id {
			return change
		}
	}
	return nil
}

func (f *FakeJJ) Resolve(_ context.Context, revset string) (*jj.Change, error) {
	if f.Ambiguous[revset] {
		return nil, revsyncerrors.NewRevisionError(revset, revsyncerrors.ErrAmbiguousRevision)
	}
	id := revset
	if alias, ok := f.Aliases[revset]; ok {
		id = alias
	}
	if change := f.find(id); change != nil {
		return change, nil
	}
	return nil, revsyncerrors.NewRevisionError(revset, revsyncerrors.ErrNotFound)
}

func (f *FakeJJ) AncestorsBetween(_ context.Context, base, head string) ([]*jj.Change, error) {
	headID := head
	if alias, ok := f.Aliases[head]; ok {
		headID = alias
	}
	baseID := base
	if alias, ok := f.Aliases[base]; ok {
		baseID = alias
	}

	headIdx := -1
	baseIdx := -1
	for i, change := range f.Chain {
		if change.ID == headID {
			headIdx = i
		}
		if change.ID == baseID {
			baseIdx = i
		}
	}
	if headIdx == -1 {
		if baseID == headID || baseID == f.Trunk {
			// Head equals the base: empty range.
			return nil, nil
		}
		return nil, revsyncerrors.NewRevisionError(head, revsyncerrors.ErrNotFound)
	}

	var out []*jj.Change
	for i := baseIdx + 1; i <= headIdx; i++ {
		out = append(out, f.Chain[i])
	}
	return out, nil
}

func (f *FakeJJ) TreeHash(_ context.Context, changeID string) (string, error) {
	if change := f.find(changeID); change != nil {
		return f.Trees[changeID], nil
	}
	return "", revsyncerrors.NewRevisionError(changeID, revsyncerrors.ErrNotFound)
}

func (f *FakeJJ) CommitTree(_ context.Context, commitID string) (string, error) {
	if tree, ok := f.CommitTrees[commitID]; ok {
		return tree, nil
	}
	return "", fmt.Errorf("commit %s: %w", commitID, revsyncerrors.ErrNotFound)
}

func (f *FakeJJ) SetDescription(_ context.Context, changeID, text string) error {
	change := f.find(changeID)
	if change == nil {
		return revsyncerrors.NewRevisionError(changeID, revsyncerrors.ErrNotFound)
	}
	change.Description = text
	f.DescribeCalls[changeID] = text
	return nil
}

func (f *FakeJJ) PushBranch(_ context.Context, opts jj.PushOptions) (string, error) {
	if f.PushErr != nil {
		err := f.PushErr
		f.PushErr = nil
		return "", err
	}
	tree := f.Trees[opts.ChangeID]
	parent := opts.BaseCommit
	if prev, ok := f.Remote[opts.Branch]; ok {
		if f.CommitTrees[prev] == tree {
			return prev, nil
		}
		parent = prev
	}
	f.pushSeq++
	head := fmt.Sprintf("%s-head-%d", opts.Branch, f.pushSeq)
	f.Remote[opts.Branch] = head
	f.CommitTrees[head] = tree
	f.Parents[head] = parent
	f.Pushes = append(f.Pushes, opts)
	return head, nil
}

func (f *FakeJJ) RemoteBranchHead(_ context.Context, branch string) (string, error) {
	return f.Remote[branch], nil
}

func (f *FakeJJ) TrunkHead(_ context.Context) (string, error) {
	if f.NoTrunk {
		return "", fmt.Errorf("trunk origin/%s: %w", f.Trunk, revsyncerrors.ErrDetachedBase)
	}
	return f.TrunkCommit, nil
}

func (f *FakeJJ) DeleteRemoteBranchTracking(_ context.Context, branch string) error {
	delete(f.Remote, branch)
	return nil
}

func (f *FakeJJ) Fetch(_ context.Context) error {
	f.Fetches++
	return nil
}
