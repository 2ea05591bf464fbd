// Package model holds the shared value types passed between the stack
// resolver, the synchronizer and the landing engine.
package model

// PRState is the lifecycle state of a pull request record.
type PRState string

const (
	// PRStateOpen is the normal in-review state.
	PRStateOpen PRState = "open"
	// PRStateMerged is the terminal state after a successful landing.
	PRStateMerged PRState = "merged"
	// PRStateClosed is the terminal state after an explicit close.
	PRStateClosed PRState = "closed"
)

// PullRequestRecord is the engine's view of one remote pull request, tied to
// exactly one change via its stable identifier. All status fields are
// read-only snapshots sourced from the hosting platform.
type PullRequestRecord struct {
	// ChangeID is the stable identifier of the backing change.
	ChangeID string

	// Number is the platform-assigned pull request number.
	Number int

	// URL is the pull request's web URL.
	URL string

	// Branch is the derived head branch name.
	Branch string

	// Base is the branch the pull request merges into: trunk, or another
	// record's Branch in dependent mode.
	Base string

	// Draft reports whether the pull request is a draft.
	Draft bool

	// State is the lifecycle state.
	State PRState

	// HeadCommit is the branch head as of the last push.
	HeadCommit string

	// Approved reports whether the pull request carries an approving review.
	Approved bool

	// Approvers lists the users whose reviews approved the pull request.
	Approvers []string

	// ChecksPassing and ChecksPending summarize CI status.
	ChecksPassing bool
	ChecksPending bool

	// Title and Body mirror the remote title and description.
	Title string
	Body  string
}

// LandResult reports the outcome of landing one change.
type LandResult struct {
	// ChangeID is the stable identifier of the landed change.
	ChangeID string

	// PRNumber is the pull request that was squash-merged.
	PRNumber int

	// MergeCommit is the resulting trunk commit.
	MergeCommit string

	// Branch is the remote branch that was deleted after the merge.
	Branch string
}
