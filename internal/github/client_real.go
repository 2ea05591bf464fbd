package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// realClient implements Client on top of go-github.
type realClient struct {
	client   *github.Client
	owner    string
	repo     string
	token    string
	hostname string
}

// NewRealClient creates an authenticated Client for owner/repo on hostname
// (github.com or a GitHub Enterprise host).
func NewRealClient(ctx context.Context, hostname, token, owner, repo string) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	client := github.NewClient(tc)
	if hostname != "" && hostname != "github.com" {
		baseURL := fmt.Sprintf("https://%s/api/v3/", hostname)
		uploadURL := fmt.Sprintf("https://%s/api/uploads/", hostname)
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URLs: %w", err)
		}
	}

	return &realClient{
		client:   client,
		owner:    owner,
		repo:     repo,
		token:    token,
		hostname: hostname,
	}, nil
}

func (c *realClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error) {
	pr := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(opts.Head),
		Base:  github.String(opts.Base),
		Draft: github.Bool(opts.Draft),
	}
	if opts.Body != "" {
		pr.Body = github.String(opts.Body)
	}

	var created *github.PullRequest
	err := withRetry(ctx, func() error {
		var err error
		created, _, err = c.client.PullRequests.Create(ctx, c.owner, c.repo, pr)
		return classifyError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	if len(opts.Reviewers) > 0 {
		// Reviewer assignment is best-effort; an unknown username must not fail
		// the whole synchronization.
		_, _, _ = c.client.PullRequests.RequestReviewers(ctx, c.owner, c.repo, created.GetNumber(), github.ReviewersRequest{
			Reviewers: opts.Reviewers,
		})
	}

	return toPullRequestInfo(created), nil
}

func (c *realClient) UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error {
	// Draft status changes go through the GraphQL API; the REST edit endpoint
	// does not support them.
	if opts.Draft != nil {
		pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
		if err == nil && pr.Draft != nil && *pr.Draft != *opts.Draft {
			if pr.NodeID == nil {
				return fmt.Errorf("PR %d does not have a node ID", number)
			}
			if err := c.setDraftStatus(ctx, *pr.NodeID, *opts.Draft); err != nil {
				return fmt.Errorf("failed to update draft status for PR %d: %w", number, err)
			}
		}
	}

	update := &github.PullRequest{}
	dirty := false
	if opts.Title != nil {
		update.Title = opts.Title
		dirty = true
	}
	if opts.Body != nil {
		update.Body = opts.Body
		dirty = true
	}
	if opts.Base != nil {
		update.Base = &github.PullRequestBranch{Ref: opts.Base}
		dirty = true
	}
	if opts.State != nil {
		update.State = opts.State
		dirty = true
	}
	if !dirty {
		return nil
	}

	err := withRetry(ctx, func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, update)
		return classifyError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, err)
	}
	return nil
}

func (c *realClient) GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error) {
	var pr *github.PullRequest
	err := withRetry(ctx, func() error {
		var err error
		pr, _, err = c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
		return classifyError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}

	info := toPullRequestInfo(pr)
	c.populateApprovals(ctx, info)
	c.populateCheckStatus(ctx, info)
	return info, nil
}

func (c *realClient) GetPullRequestByBranch(ctx context.Context, branch string) (*PullRequestInfo, error) {
	var prs []*github.PullRequest
	err := withRetry(ctx, func() error {
		var err error
		prs, _, err = c.client.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
			Head:        fmt.Sprintf("%s:%s", c.owner, branch),
			State:       "all",
			ListOptions: github.ListOptions{PerPage: 1},
		})
		return classifyError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s: %w", branch, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return toPullRequestInfo(prs[0]), nil
}

func (c *realClient) SquashMerge(ctx context.Context, number int, commitTitle, commitBody string) (string, error) {
	var result *github.PullRequestMergeResult
	err := withRetry(ctx, func() error {
		var err error
		result, _, err = c.client.PullRequests.Merge(ctx, c.owner, c.repo, number, commitBody, &github.PullRequestOptions{
			CommitTitle: commitTitle,
			MergeMethod: "squash",
		})
		return classifyMergeError(err)
	})
	if err != nil {
		return "", fmt.Errorf("failed to merge pull request #%d: %w", number, err)
	}
	return result.GetSHA(), nil
}

func (c *realClient) DeleteBranch(ctx context.Context, name string) error {
	err := withRetry(ctx, func() error {
		_, err := c.client.Git.DeleteRef(ctx, c.owner, c.repo, "heads/"+name)
		return classifyError(err)
	})
	if err != nil {
		// The branch may already be gone, e.g. auto-deleted by the repository
		// after merge. That is the desired end state.
		if strings.Contains(err.Error(), "Reference does not exist") {
			return nil
		}
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

func (c *realClient) AddComment(ctx context.Context, number int, text string) error {
	err := withRetry(ctx, func() error {
		_, _, err := c.client.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
			Body: github.String(text),
		})
		return classifyError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to comment on pull request #%d: %w", number, err)
	}
	return nil
}

// populateApprovals fills the approval fields from the PR's reviews. A failure
// here leaves the record unapproved rather than failing the read.
func (c *realClient) populateApprovals(ctx context.Context, info *PullRequestInfo) {
	reviews, _, err := c.client.PullRequests.ListReviews(ctx, c.owner, c.repo, info.Number, &github.ListOptions{PerPage: 100})
	if err != nil {
		return
	}

	// Track the latest review per user; a later CHANGES_REQUESTED supersedes
	// an earlier APPROVED.
	latest := make(map[string]string)
	var order []string
	for _, review := range reviews {
		user := review.GetUser().GetLogin()
		state := review.GetState()
		if user == "" || state == "" || state == "COMMENTED" {
			continue
		}
		if _, seen := latest[user]; !seen {
			order = append(order, user)
		}
		latest[user] = state
	}
	for _, user := range order {
		if latest[user] == "APPROVED" {
			info.Approvers = append(info.Approvers, user)
		}
	}
	info.Approved = len(info.Approvers) > 0
}

// populateCheckStatus fills the check summary from check runs on the head
// commit. If the status cannot be read, checks are assumed passing.
func (c *realClient) populateCheckStatus(ctx context.Context, info *PullRequestInfo) {
	info.ChecksPassing = true
	if info.HeadSHA == "" {
		return
	}

	checkRuns, _, err := c.client.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, info.HeadSHA, &github.ListCheckRunsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return
	}

	for _, run := range checkRuns.CheckRuns {
		switch strings.ToUpper(run.GetStatus()) {
		case "QUEUED", "IN_PROGRESS":
			info.ChecksPending = true
		}
		switch strings.ToUpper(run.GetConclusion()) {
		case "FAILURE", "CANCELED", "TIMED_OUT", "ACTION_REQUIRED":
			info.ChecksPassing = false
		}
	}
}

// setDraftStatus toggles a PR's draft flag via the GraphQL API.
func (c *realClient) setDraftStatus(ctx context.Context, nodeID string, draft bool) error {
	mutation := `mutation MarkPullRequestReadyForReview($pullRequestId: ID!) {
		markPullRequestReadyForReview(input: {pullRequestId: $pullRequestId}) {
			pullRequest { id isDraft }
		}
	}`
	if draft {
		mutation = `mutation ConvertPullRequestToDraft($pullRequestId: ID!) {
			convertPullRequestToDraft(input: {pullRequestId: $pullRequestId}) {
				pullRequest { id isDraft }
			}
		}`
	}

	return runGraphQL(ctx, c.graphqlURL(), c.token, mutation, map[string]interface{}{
		"pullRequestId": nodeID,
	})
}

func (c *realClient) graphqlURL() string {
	if c.hostname == "" || c.hostname == "github.com" {
		return "https://api.github.com/graphql"
	}
	return (&url.URL{Scheme: "https", Host: c.hostname, Path: "/api/graphql"}).String()
}

// toPullRequestInfo converts a github.PullRequest to PullRequestInfo
func toPullRequestInfo(pr *github.PullRequest) *PullRequestInfo {
	if pr == nil {
		return nil
	}
	info := &PullRequestInfo{
		Number:  pr.GetNumber(),
		NodeID:  pr.GetNodeID(),
		HTMLURL: pr.GetHTMLURL(),
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		State:   pr.GetState(),
		Merged:  pr.GetMerged(),
		Draft:   pr.GetDraft(),
	}
	if pr.Base != nil {
		info.Base = pr.Base.GetRef()
	}
	if pr.Head != nil {
		info.Head = pr.Head.GetRef()
		info.HeadSHA = pr.Head.GetSHA()
	}
	return info
}
