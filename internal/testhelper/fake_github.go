package testhelper

import (
	"context"
	"fmt"

	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/github"
)

// UpdateCall records one UpdatePullRequest invocation.
type UpdateCall struct {
	Number int
	Opts   github.UpdatePROptions
}

// FakeGitHub is an in-memory github.Client.
type FakeGitHub struct {
	Owner string
	Repo  string

	// PRs maps PR numbers to their current state.
	PRs map[int]*github.PullRequestInfo

	// Comments maps PR numbers to their discussion comments.
	Comments map[int][]string

	// DeletedBranches records DeleteBranch calls in order.
	DeletedBranches []string

	// ReviewerRequests maps PR numbers to the reviewers requested at creation.
	ReviewerRequests map[int][]string

	// Updates records every UpdatePullRequest call.
	Updates []UpdateCall

	CreateCalls int
	MergeCalls  int

	// CreateErr/MergeErr, when set, fail the next corresponding call.
	CreateErr error
	MergeErr  error

	nextNumber int
	mergeSeq   int
}

// NewFakeGitHub creates an empty fake for acme/widgets.
func NewFakeGitHub() *FakeGitHub {
	return &FakeGitHub{
		Owner:            "acme",
		Repo:             "widgets",
		PRs:              make(map[int]*github.PullRequestInfo),
		Comments:         make(map[int][]string),
		ReviewerRequests: make(map[int][]string),
		nextNumber:       1,
	}
}

func (f *FakeGitHub) CreatePullRequest(_ context.Context, opts github.CreatePROptions) (*github.PullRequestInfo, error) {
	f.CreateCalls++
	if f.CreateErr != nil {
		err := f.CreateErr
		f.CreateErr = nil
		return nil, err
	}
	number := f.nextNumber
	f.nextNumber++
	pr := &github.PullRequestInfo{
		Number:        number,
		NodeID:        fmt.Sprintf("node-%d", number),
		HTMLURL:       fmt.Sprintf("https://github.com/%s/%s/pull/%d", f.Owner, f.Repo, number),
		Title:         opts.Title,
		Body:          opts.Body,
		State:         "open",
		Draft:         opts.Draft,
		Base:          opts.Base,
		Head:          opts.Head,
		ChecksPassing: true,
	}
	f.PRs[number] = pr
	if len(opts.Reviewers) > 0 {
		f.ReviewerRequests[number] = append([]string(nil), opts.Reviewers...)
	}
	return clonePR(pr), nil
}

func (f *FakeGitHub) UpdatePullRequest(_ context.Context, number int, opts github.UpdatePROptions) error {
	pr, ok := f.PRs[number]
	if !ok {
		return fmt.Errorf("PR #%d: %w", number, revsyncerrors.ErrNotFound)
	}
	f.Updates = append(f.Updates, UpdateCall{Number: number, Opts: opts})
	if opts.Title != nil {
		pr.Title = *opts.Title
	}
	if opts.Body != nil {
		pr.Body = *opts.Body
	}
	if opts.Base != nil {
		pr.Base = *opts.Base
	}
	if opts.Draft != nil {
		pr.Draft = *opts.Draft
	}
	if opts.State != nil {
		pr.State = *opts.State
	}
	return nil
}

func (f *FakeGitHub) GetPullRequest(_ context.Context, number int) (*github.PullRequestInfo, error) {
	pr, ok := f.PRs[number]
	if !ok {
		return nil, fmt.Errorf("PR #%d: %w", number, revsyncerrors.ErrNotFound)
	}
	return clonePR(pr), nil
}

func (f *FakeGitHub) GetPullRequestByBranch(_ context.Context, branch string) (*github.PullRequestInfo, error) {
	for _, pr := range f.PRs {
		if pr.Head == branch {
			return clonePR(pr), nil
		}
	}
	return nil, nil
}

func (f *FakeGitHub) SquashMerge(_ context.Context, number int, commitTitle, commitBody string) (string, error) {
	f.MergeCalls++
	if f.MergeErr != nil {
		err := f.MergeErr
		f.MergeErr = nil
		return "", err
	}
	pr, ok := f.PRs[number]
	if !ok {
		return "", fmt.Errorf("PR #%d: %w", number, revsyncerrors.ErrNotFound)
	}
	pr.State = "closed"
	pr.Merged = true
	pr.Title = commitTitle
	pr.Body = commitBody
	f.mergeSeq++
	return fmt.Sprintf("merge-sha-%d", f.mergeSeq), nil
}

func (f *FakeGitHub) DeleteBranch(_ context.Context, name string) error {
	f.DeletedBranches = append(f.DeletedBranches, name)
	return nil
}

func (f *FakeGitHub) AddComment(_ context.Context, number int, text string) error {
	if _, ok := f.PRs[number]; !ok {
		return fmt.Errorf("PR #%d: %w", number, revsyncerrors.ErrNotFound)
	}
	f.Comments[number] = append(f.Comments[number], text)
	return nil
}

// SetHead records the pushed head commit for a PR, mirroring what the real
// platform reports after a branch push.
func (f *FakeGitHub) SetHead(number int, sha string) {
	if pr, ok := f.PRs[number]; ok {
		pr.HeadSHA = sha
	}
}

// Approve marks a PR as approved by the given users.
func (f *FakeGitHub) Approve(number int, users ...string) {
	if pr, ok := f.PRs[number]; ok {
		pr.Approved = true
		pr.Approvers = append(pr.Approvers, users...)
	}
}

func clonePR(pr *github.PullRequestInfo) *github.PullRequestInfo {
	out := *pr
	out.Approvers = append([]string(nil), pr.Approvers...)
	return &out
}
