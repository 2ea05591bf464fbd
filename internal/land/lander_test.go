package land_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"revsync.dev/revsync/internal/config"
	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/github"
	"revsync.dev/revsync/internal/jj"
	"revsync.dev/revsync/internal/land"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/testhelper"
)

func testConfig() *config.Config {
	return &config.Config{
		Owner:        "acme",
		Repo:         "widgets",
		Hostname:     "github.com",
		Remote:       "origin",
		Trunk:        "main",
		BranchPrefix: "revsync/",
	}
}

func newEnv(t *testing.T) (*testhelper.FakeJJ, *testhelper.FakeGitHub, *land.Lander) {
	t.Helper()
	fj := testhelper.NewFakeJJ()
	fg := testhelper.NewFakeGitHub()
	log := output.NewSplog()
	log.SetQuiet(true)
	return fj, fg, land.NewLander(fj, fg, testConfig(), log)
}

// addSynced creates a change whose pull request already shows its current
// content, as if a synchronization just ran.
func addSynced(t *testing.T, fj *testhelper.FakeJJ, fg *testhelper.FakeGitHub, id, title string) (*jj.Change, *github.PullRequestInfo) {
	t.Helper()
	branch := "revsync/" + id
	pr, err := fg.CreatePullRequest(context.Background(), github.CreatePROptions{
		Title: title,
		Body:  "Body of " + title + ".",
		Head:  branch,
		Base:  "main",
	})
	require.NoError(t, err)

	description := title + "\n\nBody of " + title + ".\n\nPull Request: " + pr.HTMLURL + "\n"
	change := fj.AddChange(id, description)
	fg.SetHead(pr.Number, change.CommitID)
	fj.Remote[branch] = change.CommitID
	return change, fg.PRs[pr.Number]
}

func TestLand(t *testing.T) {
	fj, fg, l := newEnv(t)
	change, pr := addSynced(t, fj, fg, "aaa", "Add widget")
	fg.Approve(pr.Number, "alice")

	result, err := l.Land(context.Background(), change)
	require.NoError(t, err)

	require.Equal(t, "aaa", result.ChangeID)
	require.Equal(t, pr.Number, result.PRNumber)
	require.NotEmpty(t, result.MergeCommit)
	require.Equal(t, "revsync/aaa", result.Branch)

	require.True(t, fg.PRs[pr.Number].Merged)
	require.Equal(t, "Add widget", fg.PRs[pr.Number].Title)
	require.Contains(t, fg.PRs[pr.Number].Body, "Pull Request: https://github.com/acme/widgets/pull/1")
	require.Contains(t, fg.PRs[pr.Number].Body, "Reviewed By: alice")

	require.Equal(t, []string{"revsync/aaa"}, fg.DeletedBranches)
	require.NotContains(t, fj.Remote, "revsync/aaa")
	require.Equal(t, 1, fj.Fetches)

	// The approval is recorded in the local description.
	require.Contains(t, fj.DescribeCalls["aaa"], "Reviewed By: alice")
}

func TestLandUsesRemoteMessage(t *testing.T) {
	fj, fg, l := newEnv(t)
	change, pr := addSynced(t, fj, fg, "aaa", "Add widget")
	fg.Approve(pr.Number, "alice")

	// The title and body were edited on the platform after the last push; the
	// local description still carries the original text.
	fg.PRs[pr.Number].Title = "Add widget with retries"
	fg.PRs[pr.Number].Body = "Covers the retry path too.\n\n" +
		"<!-- revsync stack -->\n---\n**Stack** (1/1):\n- **Add widget** ⬅\n"

	_, err := l.Land(context.Background(), change)
	require.NoError(t, err)

	merged := fg.PRs[pr.Number]
	require.Equal(t, "Add widget with retries", merged.Title)
	require.Contains(t, merged.Body, "Covers the retry path too.")
	require.NotContains(t, merged.Body, "Body of Add widget")
	require.NotContains(t, merged.Body, "**Stack**")
	require.Contains(t, merged.Body, "Pull Request: "+pr.HTMLURL)
}

func TestLandWithoutPullRequest(t *testing.T) {
	fj, _, l := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n")

	_, err := l.Land(context.Background(), change)
	require.ErrorIs(t, err, revsyncerrors.ErrNotFound)
}

func TestLandStaleContent(t *testing.T) {
	fj, fg, l := newEnv(t)
	change, _ := addSynced(t, fj, fg, "aaa", "Add widget")

	// Local edit after the last synchronization.
	fj.Amend("aaa")

	_, err := l.Land(context.Background(), change)
	require.ErrorIs(t, err, revsyncerrors.ErrStalePullRequest)
	require.Zero(t, fg.MergeCalls)
}

func TestLandAlreadyMerged(t *testing.T) {
	fj, fg, l := newEnv(t)
	change, pr := addSynced(t, fj, fg, "aaa", "Add widget")
	fg.PRs[pr.Number].Merged = true
	fg.PRs[pr.Number].State = "closed"

	_, err := l.Land(context.Background(), change)
	require.ErrorIs(t, err, revsyncerrors.ErrStalePullRequest)
}

func TestLandRequiresApproval(t *testing.T) {
	fj, fg, l := newEnv(t)
	l.Config.RequireApproval = true
	change, pr := addSynced(t, fj, fg, "aaa", "Add widget")

	_, err := l.Land(context.Background(), change)
	require.ErrorIs(t, err, revsyncerrors.ErrApprovalRequired)

	fg.Approve(pr.Number, "alice")
	_, err = l.Land(context.Background(), change)
	require.NoError(t, err)
}

func TestLandOutOfOrder(t *testing.T) {
	fj, fg, l := newEnv(t)
	addSynced(t, fj, fg, "aaa", "Add widget")
	changeB, prB := addSynced(t, fj, fg, "bbb", "Wire widget")
	fg.PRs[prB.Number].Base = "revsync/aaa"

	_, err := l.Land(context.Background(), changeB)
	require.ErrorIs(t, err, revsyncerrors.ErrOutOfOrderLanding)
	require.Zero(t, fg.MergeCalls)
}

func TestLandHealsBaseWhenParentAlreadyLanded(t *testing.T) {
	fj, fg, l := newEnv(t)
	_, prA := addSynced(t, fj, fg, "aaa", "Add widget")
	changeB, prB := addSynced(t, fj, fg, "bbb", "Wire widget")
	fg.PRs[prB.Number].Base = "revsync/aaa"
	fg.PRs[prA.Number].Merged = true
	fg.PRs[prA.Number].State = "closed"

	result, err := l.Land(context.Background(), changeB)
	require.NoError(t, err)
	require.NotEmpty(t, result.MergeCommit)
	require.Equal(t, "main", fg.PRs[prB.Number].Base)
}
