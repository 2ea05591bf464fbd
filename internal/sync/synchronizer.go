// Package sync implements the create-or-update protocol that reconciles one
// local change with one remote pull request.
//
// Pushes are always additive: a new snapshot is appended to the existing
// branch instead of rewriting it, so the platform's own diff view shows the
// increment since the last synchronization and review context survives.
// Every step is safe to re-run; a partially-failed synchronization converges
// to the same end state on the next call.
package sync

import (
	"context"
	"errors"

	"revsync.dev/revsync/internal/branchutil"
	"revsync.dev/revsync/internal/config"
	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/github"
	"revsync.dev/revsync/internal/jj"
	"revsync.dev/revsync/internal/message"
	"revsync.dev/revsync/internal/model"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/stack"
)

// Options controls one synchronization call.
type Options struct {
	// Draft creates new pull requests as drafts.
	Draft bool

	// UpdateMessage pushes the local title/body to the remote pull request.
	// When false the remote stays authoritative between explicit updates.
	UpdateMessage bool

	// UpdateComment is the discussion comment posted when the branch head
	// moves. When empty, Prompt (if set) supplies one.
	UpdateComment string

	// CherryPick synchronizes against trunk regardless of stack parentage.
	CherryPick bool
}

// StackContext situates one change within the stack being synchronized. The
// driver fills Records as entries complete so later entries can link earlier
// pull requests.
type StackContext struct {
	Stack   *stack.Stack
	Index   int
	Records map[string]*model.PullRequestRecord
}

// dependent reports whether base branches chain onto the previous stack entry.
func (sc *StackContext) dependent() bool {
	return sc != nil && sc.Stack != nil && !sc.Stack.Mode.CherryPick()
}

// prevChange returns the previous stack entry, or nil at the root.
func (sc *StackContext) prevChange() *jj.Change {
	if sc == nil || sc.Stack == nil {
		return nil
	}
	return sc.Stack.Parent(sc.Index)
}

// Synchronizer reconciles changes with pull requests.
type Synchronizer struct {
	JJ     jj.Client
	GitHub github.Client
	Config *config.Config
	Log    *output.Splog

	// Prompt obtains an update comment from the user when none was supplied.
	// Optional; the engine itself never blocks on input.
	Prompt func() (string, error)
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(jjClient jj.Client, ghClient github.Client, cfg *config.Config, log *output.Splog) *Synchronizer {
	return &Synchronizer{JJ: jjClient, GitHub: ghClient, Config: cfg, Log: log}
}

// Synchronize performs the create-or-update protocol for one change and
// returns its pull request record.
func (s *Synchronizer) Synchronize(ctx context.Context, change *jj.Change, sc *StackContext, opts Options) (*model.PullRequestRecord, error) {
	branch := branchutil.BranchName(s.Config.BranchPrefix, change.ID)
	record, err := s.synchronize(ctx, change, branch, sc, opts)
	if err != nil {
		prNumber := 0
		if record != nil {
			prNumber = record.Number
		}
		return nil, revsyncerrors.NewSyncError(change.ID, branch, prNumber, err)
	}
	if sc != nil && sc.Records != nil {
		sc.Records[change.ID] = record
	}
	return record, nil
}

func (s *Synchronizer) synchronize(ctx context.Context, change *jj.Change, branch string, sc *StackContext, opts Options) (*model.PullRequestRecord, error) {
	sections := message.Parse(change.Description)

	existing, err := s.findExisting(ctx, branch, sections)
	if err != nil {
		return nil, err
	}

	baseBranch, err := s.desiredBase(ctx, sc, opts)
	if err != nil {
		return nil, err
	}

	tree, err := s.JJ.TreeHash(ctx, change.ID)
	if err != nil {
		return nil, err
	}

	// No-op detection: when the snapshot already sits at the branch head and
	// no message update was requested, skip all content writes. The base
	// check below still runs, because a previously-landed parent must heal
	// dependents even when their content is untouched.
	if existing != nil && !opts.UpdateMessage && s.headMatches(ctx, existing, tree) {
		s.Log.Debug("change %s is unchanged, skipping push", change.ID)
		record := toRecord(change.ID, branch, existing)
		if err := s.rewireBase(ctx, existing, baseBranch, record); err != nil {
			return record, err
		}
		return record, nil
	}

	head, err := s.push(ctx, change, branch, baseBranch, sections.Title)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return s.create(ctx, change, branch, baseBranch, head, sections, sc, opts)
	}
	return s.update(ctx, change, branch, baseBranch, head, sections, existing, sc, opts)
}

// findExisting locates the pull request for this change, if any. The
// description's Pull Request line is the system of record, but a lookup by
// branch heals the case where creation succeeded and the metadata write-back
// was interrupted.
func (s *Synchronizer) findExisting(ctx context.Context, branch string, sections message.Sections) (*github.PullRequestInfo, error) {
	if number := s.Config.ParsePullRequestField(sections.PullRequestURL); number > 0 {
		pr, err := s.GitHub.GetPullRequest(ctx, number)
		if err != nil && !errors.Is(err, revsyncerrors.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			if terminal(pr) {
				// A terminal pull request is never resurrected; a fresh one
				// is created instead.
				return nil, nil
			}
			return pr, nil
		}
		// The recorded pull request is gone; fall through to the branch lookup.
	}

	pr, err := s.GitHub.GetPullRequestByBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	if pr != nil && terminal(pr) {
		return nil, nil
	}
	return pr, nil
}

// desiredBase computes the base branch for this change: trunk for
// single/cherry-pick entries and stack roots, otherwise the previous entry's
// branch as long as that branch still has an open pull request. After the
// previous entry lands its branch is deleted, and the base heals to trunk
// here on the next synchronization.
func (s *Synchronizer) desiredBase(ctx context.Context, sc *StackContext, opts Options) (string, error) {
	if opts.CherryPick || !sc.dependent() {
		return s.Config.Trunk, nil
	}
	prev := sc.prevChange()
	if prev == nil {
		return s.Config.Trunk, nil
	}

	prevBranch := branchutil.BranchName(s.Config.BranchPrefix, prev.ID)
	prevPR, err := s.GitHub.GetPullRequestByBranch(ctx, prevBranch)
	if err != nil {
		return "", err
	}
	if prevPR == nil || terminal(prevPR) {
		return s.Config.Trunk, nil
	}
	return prevBranch, nil
}

// terminal reports whether a pull request reached a final state.
func terminal(pr *github.PullRequestInfo) bool {
	return pr.Merged || pr.State == "closed"
}

// headMatches reports whether the recorded head commit carries the change's
// current snapshot.
func (s *Synchronizer) headMatches(ctx context.Context, pr *github.PullRequestInfo, tree string) bool {
	if pr.HeadSHA == "" {
		return false
	}
	headTree, err := s.JJ.CommitTree(ctx, pr.HeadSHA)
	if err != nil {
		return false
	}
	return headTree == tree
}

// push appends the change's snapshot to its branch and returns the new head.
func (s *Synchronizer) push(ctx context.Context, change *jj.Change, branch, baseBranch, title string) (string, error) {
	baseCommit, err := s.JJ.RemoteBranchHead(ctx, baseBranch)
	if err != nil {
		return "", err
	}
	if baseCommit == "" {
		baseCommit, err = s.JJ.TrunkHead(ctx)
		if err != nil {
			return "", err
		}
	}
	return s.JJ.PushBranch(ctx, jj.PushOptions{
		Branch:     branch,
		ChangeID:   change.ID,
		BaseCommit: baseCommit,
		Message:    title,
	})
}

func (s *Synchronizer) create(ctx context.Context, change *jj.Change, branch, baseBranch, head string, sections message.Sections, sc *StackContext, opts Options) (*model.PullRequestRecord, error) {
	body := s.remoteBody(sections, sc)
	pr, err := s.GitHub.CreatePullRequest(ctx, github.CreatePROptions{
		Title:     sections.Title,
		Body:      body,
		Head:      branch,
		Base:      baseBranch,
		Draft:     opts.Draft,
		Reviewers: sections.Reviewers,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("created PR #%d for change %s", pr.Number, change.ID)

	// Write the pull request URL back into the description. The description
	// is the only durable state outside the platform.
	updated := sections.WithPullRequestURL(pr.HTMLURL)
	if err := s.JJ.SetDescription(ctx, change.ID, updated.Serialize()); err != nil {
		return nil, err
	}
	change.Description = updated.Serialize()

	record := toRecord(change.ID, branch, pr)
	record.HeadCommit = head
	return record, nil
}

func (s *Synchronizer) update(ctx context.Context, change *jj.Change, branch, baseBranch, head string, sections message.Sections, existing *github.PullRequestInfo, sc *StackContext, opts Options) (*model.PullRequestRecord, error) {
	record := toRecord(change.ID, branch, existing)
	record.HeadCommit = head

	if opts.UpdateMessage {
		title := sections.Title
		body := s.remoteBody(sections, sc)
		update := github.UpdatePROptions{Title: &title, Body: &body}
		if err := s.GitHub.UpdatePullRequest(ctx, existing.Number, update); err != nil {
			return record, err
		}
		record.Title, record.Body = title, body
	}

	if head != existing.HeadSHA {
		comment, err := s.updateComment(opts)
		if err != nil {
			return record, err
		}
		if comment != "" {
			if err := s.GitHub.AddComment(ctx, existing.Number, comment); err != nil {
				return record, err
			}
		}
	}

	if err := s.rewireBase(ctx, existing, baseBranch, record); err != nil {
		return record, err
	}
	return record, nil
}

// rewireBase points the pull request's base branch at the desired base. It
// runs on every synchronization, including no-ops: the previous stack entry's
// branch name is stable, but its existence is not.
func (s *Synchronizer) rewireBase(ctx context.Context, existing *github.PullRequestInfo, baseBranch string, record *model.PullRequestRecord) error {
	if existing.Base == baseBranch {
		return nil
	}
	s.Log.Info("retargeting PR #%d base to %s", existing.Number, baseBranch)
	if err := s.GitHub.UpdatePullRequest(ctx, existing.Number, github.UpdatePROptions{Base: &baseBranch}); err != nil {
		return err
	}
	record.Base = baseBranch
	return nil
}

// remoteBody renders the body pushed to the platform: the local body plus, in
// multi-entry dependent stacks, the stack navigation footer.
func (s *Synchronizer) remoteBody(sections message.Sections, sc *StackContext) string {
	if !sc.dependent() || sc.Stack.Len() <= 1 {
		return sections.Body
	}
	return appendStackFooter(sections.Body, s.Config, sc)
}

func (s *Synchronizer) updateComment(opts Options) (string, error) {
	if opts.UpdateComment != "" {
		return opts.UpdateComment, nil
	}
	if s.Prompt != nil {
		return s.Prompt()
	}
	return defaultUpdateComment, nil
}

const defaultUpdateComment = "Pushed a new revision."

func toRecord(changeID, branch string, pr *github.PullRequestInfo) *model.PullRequestRecord {
	record := &model.PullRequestRecord{
		ChangeID:      changeID,
		Number:        pr.Number,
		URL:           pr.HTMLURL,
		Branch:        branch,
		Base:          pr.Base,
		Draft:         pr.Draft,
		State:         model.PRStateOpen,
		HeadCommit:    pr.HeadSHA,
		Approved:      pr.Approved,
		Approvers:     append([]string(nil), pr.Approvers...),
		ChecksPassing: pr.ChecksPassing,
		ChecksPending: pr.ChecksPending,
		Title:         pr.Title,
		Body:          pr.Body,
	}
	if pr.Merged {
		record.State = model.PRStateMerged
	} else if pr.State == "closed" {
		record.State = model.PRStateClosed
	}
	return record
}
