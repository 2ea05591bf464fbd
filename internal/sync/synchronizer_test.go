package sync_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"revsync.dev/revsync/internal/config"
	"revsync.dev/revsync/internal/model"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/stack"
	"revsync.dev/revsync/internal/sync"
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

func newEnv(t *testing.T) (*testhelper.FakeJJ, *testhelper.FakeGitHub, *sync.Synchronizer) {
	t.Helper()
	fj := testhelper.NewFakeJJ()
	fg := testhelper.NewFakeGitHub()
	log := output.NewSplog()
	log.SetQuiet(true)
	return fj, fg, sync.NewSynchronizer(fj, fg, testConfig(), log)
}

func TestSynchronizeCreatesPullRequest(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n\nExplains the widget.\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)

	require.Equal(t, 1, record.Number)
	require.Equal(t, "revsync/aaa", record.Branch)
	require.Equal(t, "main", record.Base)
	require.Equal(t, model.PRStateOpen, record.State)
	require.Equal(t, "https://github.com/acme/widgets/pull/1", record.URL)

	require.Len(t, fj.Pushes, 1)
	require.Equal(t, "trunk-commit", fj.Pushes[0].BaseCommit)
	require.Equal(t, "Add widget", fj.Pushes[0].Message)

	// The pull request URL is written back into the change description.
	require.Contains(t, fj.DescribeCalls["aaa"], "Pull Request: https://github.com/acme/widgets/pull/1")

	pr := fg.PRs[1]
	require.Equal(t, "Add widget", pr.Title)
	require.Equal(t, "Explains the widget.", pr.Body)
	require.False(t, pr.Draft)
}

func TestSynchronizeDraft(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n")

	_, err := s.Synchronize(context.Background(), change, nil, sync.Options{Draft: true})
	require.NoError(t, err)
	require.True(t, fg.PRs[1].Draft)
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n\nBody.\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	fg.SetHead(record.Number, record.HeadCommit)

	again, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)

	require.Equal(t, record.Number, again.Number)
	require.Equal(t, 1, fg.CreateCalls)
	require.Len(t, fj.Pushes, 1)
	require.Empty(t, fg.Updates)
	require.Empty(t, fg.Comments[record.Number])
}

func TestSynchronizeAfterAmend(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	fg.SetHead(record.Number, record.HeadCommit)

	fj.Amend("aaa")

	t.Run("pushes a new snapshot and comments", func(t *testing.T) {
		updated, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
		require.NoError(t, err)

		require.Len(t, fj.Pushes, 2)
		require.NotEqual(t, record.HeadCommit, updated.HeadCommit)
		require.Equal(t, []string{"Pushed a new revision."}, fg.Comments[record.Number])

		// The remote title and body were not touched.
		require.Empty(t, fg.Updates)
	})

	t.Run("uses the explicit update comment", func(t *testing.T) {
		fg.SetHead(record.Number, "")
		fj.Amend("aaa")
		_, err := s.Synchronize(context.Background(), change, nil, sync.Options{
			UpdateComment: "Rebased onto trunk.",
		})
		require.NoError(t, err)
		require.Contains(t, fg.Comments[record.Number], "Rebased onto trunk.")
	})
}

func TestSynchronizeSecondPushAppendsToBranchHead(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	fg.SetHead(record.Number, record.HeadCommit)

	fj.Amend("aaa")
	updated, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)

	// Never force-pushed: the first commit sits on the base branch head, the
	// second on the existing branch head.
	require.Len(t, fj.Pushes, 2)
	require.Equal(t, "trunk-commit", fj.Parents[record.HeadCommit])
	require.Equal(t, record.HeadCommit, fj.Parents[updated.HeadCommit])
}

func TestSynchronizeUpdateMessage(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n\nFirst body.\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	fg.SetHead(record.Number, record.HeadCommit)

	change.Description = "Add better widget\n\nSecond body.\n\n" +
		"Pull Request: https://github.com/acme/widgets/pull/1\n"

	_, err = s.Synchronize(context.Background(), change, nil, sync.Options{UpdateMessage: true})
	require.NoError(t, err)

	pr := fg.PRs[record.Number]
	require.Equal(t, "Add better widget", pr.Title)
	require.Equal(t, "Second body.", pr.Body)
	require.Len(t, fj.Pushes, 1, "message-only update needs no push")
}

func TestSynchronizeRecoversFromLostWriteBack(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	fg.SetHead(record.Number, record.HeadCommit)

	// Simulate the metadata write-back being lost: the description no longer
	// mentions the pull request, but the branch still carries it.
	change.Description = "Add widget\n"

	again, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	require.Equal(t, record.Number, again.Number)
	require.Equal(t, 1, fg.CreateCalls)
}

func TestSynchronizeDoesNotResurrectTerminalPR(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", "Add widget\n")

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	fg.PRs[record.Number].State = "closed"

	fj.Amend("aaa")
	again, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)

	require.NotEqual(t, record.Number, again.Number)
	require.Equal(t, 2, fg.CreateCalls)
}

func dependentStack(fj *testhelper.FakeJJ) *stack.Stack {
	return &stack.Stack{Changes: fj.Chain, Mode: stack.ModeAllFromBase}
}

func TestSynchronizeDependentStack(t *testing.T) {
	fj, fg, s := newEnv(t)
	a := fj.AddChange("aaa", "Add widget\n\nWidget body.\n")
	b := fj.AddChange("bbb", "Wire widget\n\nWiring body.\n")

	st := dependentStack(fj)
	records := make(map[string]*model.PullRequestRecord)

	ra, err := s.Synchronize(context.Background(), a, &sync.StackContext{Stack: st, Index: 0, Records: records}, sync.Options{})
	require.NoError(t, err)
	rb, err := s.Synchronize(context.Background(), b, &sync.StackContext{Stack: st, Index: 1, Records: records}, sync.Options{})
	require.NoError(t, err)

	require.Equal(t, "main", ra.Base)
	require.Equal(t, "revsync/aaa", rb.Base)

	// The second entry's first snapshot sits on top of the first branch.
	require.Equal(t, ra.HeadCommit, fj.Pushes[1].BaseCommit)

	t.Run("footer links earlier entries", func(t *testing.T) {
		body := fg.PRs[rb.Number].Body
		require.Contains(t, body, "**Stack** (2/2)")
		require.Contains(t, body, "https://github.com/acme/widgets/pull/1")
		require.Contains(t, body, "Wiring body.")
	})

	t.Run("strip returns the author body", func(t *testing.T) {
		require.Equal(t, "Wiring body.", sync.StripStackFooter(fg.PRs[rb.Number].Body))
	})
}

func TestSynchronizeCherryPickBasesOnTrunk(t *testing.T) {
	fj, fg, s := newEnv(t)
	fj.AddChange("aaa", "Add widget\n")
	b := fj.AddChange("bbb", "Wire widget\n\nWiring body.\n")

	st := &stack.Stack{Changes: fj.Chain, Mode: stack.ModeCherryPick}
	records := make(map[string]*model.PullRequestRecord)

	rb, err := s.Synchronize(context.Background(), b, &sync.StackContext{Stack: st, Index: 1, Records: records}, sync.Options{})
	require.NoError(t, err)

	require.Equal(t, "main", rb.Base)
	require.Equal(t, "trunk-commit", fj.Pushes[0].BaseCommit)
	require.NotContains(t, fg.PRs[rb.Number].Body, "**Stack**")
}

func TestSynchronizeHealsBaseAfterParentLands(t *testing.T) {
	fj, fg, s := newEnv(t)
	a := fj.AddChange("aaa", "Add widget\n")
	b := fj.AddChange("bbb", "Wire widget\n")

	st := dependentStack(fj)
	records := make(map[string]*model.PullRequestRecord)
	ra, err := s.Synchronize(context.Background(), a, &sync.StackContext{Stack: st, Index: 0, Records: records}, sync.Options{})
	require.NoError(t, err)
	rb, err := s.Synchronize(context.Background(), b, &sync.StackContext{Stack: st, Index: 1, Records: records}, sync.Options{})
	require.NoError(t, err)
	fg.SetHead(rb.Number, rb.HeadCommit)

	// The first entry lands: its pull request merges and its branch is gone.
	fg.PRs[ra.Number].Merged = true
	fg.PRs[ra.Number].State = "closed"

	pushesBefore := len(fj.Pushes)
	again, err := s.Synchronize(context.Background(), b, &sync.StackContext{Stack: st, Index: 1, Records: records}, sync.Options{})
	require.NoError(t, err)

	require.Equal(t, "main", again.Base)
	require.Len(t, fj.Pushes, pushesBefore, "base healing must not push content")

	var sawRetarget bool
	for _, call := range fg.Updates {
		if call.Number == rb.Number && call.Opts.Base != nil && *call.Opts.Base == "main" {
			sawRetarget = true
		}
	}
	require.True(t, sawRetarget)
}

func TestSynchronizeReviewers(t *testing.T) {
	fj, fg, s := newEnv(t)
	change := fj.AddChange("aaa", strings.Join([]string{
		"Add widget",
		"",
		"Body.",
		"",
		"Reviewers: alice, bob",
		"",
	}, "\n"))

	record, err := s.Synchronize(context.Background(), change, nil, sync.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, record.Number)
	require.Equal(t, "Add widget", fg.PRs[1].Title)
	require.Equal(t, []string{"alice", "bob"}, fg.ReviewerRequests[1])
}
