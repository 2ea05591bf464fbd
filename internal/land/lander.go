// Package land merges a change's pull request into trunk and cleans up the
// branch that carried it.
package land

import (
	"context"
	"fmt"
	"strings"

	"revsync.dev/revsync/internal/branchutil"
	"revsync.dev/revsync/internal/config"
	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/github"
	"revsync.dev/revsync/internal/jj"
	"revsync.dev/revsync/internal/message"
	"revsync.dev/revsync/internal/model"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/sync"
)

// Lander lands changes. All preconditions are checked against the platform's
// current state at call time; nothing is assumed from earlier invocations.
type Lander struct {
	JJ     jj.Client
	GitHub github.Client
	Config *config.Config
	Log    *output.Splog
}

// NewLander creates a Lander.
func NewLander(jjClient jj.Client, ghClient github.Client, cfg *config.Config, log *output.Splog) *Lander {
	return &Lander{JJ: jjClient, GitHub: ghClient, Config: cfg, Log: log}
}

// Land squash-merges the change's pull request into trunk. The local change
// must carry a pull request reference and its content must match what the
// pull request shows, so nothing lands unreviewed.
func (l *Lander) Land(ctx context.Context, change *jj.Change) (*model.LandResult, error) {
	branch := branchutil.BranchName(l.Config.BranchPrefix, change.ID)
	result, err := l.land(ctx, change, branch)
	if err != nil {
		prNumber := 0
		if result != nil {
			prNumber = result.PRNumber
		}
		return nil, revsyncerrors.NewSyncError(change.ID, branch, prNumber, err)
	}
	return result, nil
}

func (l *Lander) land(ctx context.Context, change *jj.Change, branch string) (*model.LandResult, error) {
	sections := message.Parse(change.Description)

	number := l.Config.ParsePullRequestField(sections.PullRequestURL)
	if number == 0 {
		return nil, fmt.Errorf("change %s has no pull request: %w", change.ID, revsyncerrors.ErrNotFound)
	}

	pr, err := l.GitHub.GetPullRequest(ctx, number)
	if err != nil {
		return nil, err
	}
	result := &model.LandResult{ChangeID: change.ID, PRNumber: number, Branch: branch}

	if pr.Merged || pr.State == "closed" {
		return result, fmt.Errorf("PR #%d is already %s: %w", number, prStateWord(pr), revsyncerrors.ErrStalePullRequest)
	}

	if err := l.checkFresh(ctx, change, pr); err != nil {
		return result, err
	}

	if l.Config.RequireApproval && !pr.Approved {
		return result, fmt.Errorf("PR #%d: %w", number, revsyncerrors.ErrApprovalRequired)
	}

	if err := l.checkOrder(ctx, pr); err != nil {
		return result, err
	}

	// The pull request is authoritative for the commit message: edits made on
	// the platform land even when the local description was never amended.
	mergeCommit, err := l.GitHub.SquashMerge(ctx, number, pr.Title, l.commitBody(pr))
	if err != nil {
		return result, err
	}
	result.MergeCommit = mergeCommit
	l.Log.Info("landed PR #%d as %s", number, shortCommit(mergeCommit))

	// Record the reviewers in the local description. The pull request link
	// stays; it is what ties the landed change to its review.
	if len(pr.Approvers) > 0 {
		updated := sections.WithReviewedBy(pr.Approvers)
		if err := l.JJ.SetDescription(ctx, change.ID, updated.Serialize()); err != nil {
			return result, err
		}
		change.Description = updated.Serialize()
	}

	if err := l.GitHub.DeleteBranch(ctx, branch); err != nil {
		// The branch may already be gone via platform auto-delete.
		l.Log.Debug("delete branch %s: %v", branch, err)
	}
	if err := l.JJ.DeleteRemoteBranchTracking(ctx, branch); err != nil {
		l.Log.Debug("delete tracking ref %s: %v", branch, err)
	}

	// Pick up the merge commit so the working copy can rebase onto it.
	if err := l.JJ.Fetch(ctx); err != nil {
		l.Log.Warn("fetch after landing failed: %v", err)
	}

	return result, nil
}

// checkFresh verifies the pull request head carries the change's current
// content. Landing anything else would put unreviewed content on trunk.
func (l *Lander) checkFresh(ctx context.Context, change *jj.Change, pr *github.PullRequestInfo) error {
	tree, err := l.JJ.TreeHash(ctx, change.ID)
	if err != nil {
		return err
	}
	if pr.HeadSHA == "" {
		return fmt.Errorf("PR #%d has no head commit: %w", pr.Number, revsyncerrors.ErrStalePullRequest)
	}
	headTree, err := l.JJ.CommitTree(ctx, pr.HeadSHA)
	if err != nil || headTree != tree {
		return fmt.Errorf("PR #%d does not show the current content of change %s: %w",
			pr.Number, change.ID, revsyncerrors.ErrStalePullRequest)
	}
	return nil
}

// checkOrder enforces root-first landing for dependent stacks. A pull request
// still based on another entry's branch either waits for that entry to land,
// or, when the entry already landed, gets its base healed to trunk here so
// the merge diff is correct.
func (l *Lander) checkOrder(ctx context.Context, pr *github.PullRequestInfo) error {
	if pr.Base == l.Config.Trunk {
		return nil
	}
	basePR, err := l.GitHub.GetPullRequestByBranch(ctx, pr.Base)
	if err != nil {
		return err
	}
	if basePR != nil && !basePR.Merged && basePR.State != "closed" {
		return fmt.Errorf("PR #%d is based on #%d, land that first: %w",
			pr.Number, basePR.Number, revsyncerrors.ErrOutOfOrderLanding)
	}

	l.Log.Info("retargeting PR #%d base to %s before landing", pr.Number, l.Config.Trunk)
	trunk := l.Config.Trunk
	return l.GitHub.UpdatePullRequest(ctx, pr.Number, github.UpdatePROptions{Base: &trunk})
}

// commitBody builds the squash commit body: the pull request's body with the
// generated stack section removed, followed by the pull request link and the
// reviewers who approved it.
func (l *Lander) commitBody(pr *github.PullRequestInfo) string {
	var parts []string
	if body := strings.TrimSpace(sync.StripStackFooter(pr.Body)); body != "" {
		parts = append(parts, body)
	}
	trailer := message.PullRequestPrefix + " " + l.Config.PullRequestURL(pr.Number)
	if len(pr.Approvers) > 0 {
		trailer += "\n" + message.ReviewedByPrefix + " " + strings.Join(pr.Approvers, ", ")
	}
	parts = append(parts, trailer)
	return strings.Join(parts, "\n\n")
}

func prStateWord(pr *github.PullRequestInfo) string {
	if pr.Merged {
		return "merged"
	}
	return "closed"
}

func shortCommit(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
