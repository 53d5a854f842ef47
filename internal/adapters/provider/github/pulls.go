package github

import (
	"context"

	gh "github.com/google/go-github/v80/github"

	"forgeport/internal/services/importer/domain"
)

// ListPullRequests fetches one page of pull requests, oldest first
func (c *Client) ListPullRequests(
	ctx context.Context, owner, name string, page, perPage int,
) ([]domain.PullRequest, bool, error) {
	opts := &gh.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	prs, resp, err := c.gh.PullRequests.List(ctx, owner, name, opts)
	if err != nil {
		return nil, false, translate(err, "list pull requests")
	}

	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, mapPull(pr))
	}
	return out, resp.NextPage != 0, nil
}

// HasCommitListing reports that GitHub exposes per-PR commit lists
func (c *Client) HasCommitListing() bool { return true }

// ListPRCommits returns the commit SHAs of one pull request. This is a
// bounded sub-fetch (GitHub lists at most 250 commits per PR), so the page
// loop stays local
func (c *Client) ListPRCommits(ctx context.Context, owner, name string, number int) ([]string, error) {
	var shas []string
	opts := &gh.ListOptions{PerPage: 100}
	for {
		commits, resp, err := c.gh.PullRequests.ListCommits(ctx, owner, name, number, opts)
		if err != nil {
			return nil, translate(err, "list pr commits")
		}
		for _, cm := range commits {
			if sha := cm.GetSHA(); sha != "" {
				shas = append(shas, sha)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return shas, nil
}

func mapPull(pr *gh.PullRequest) domain.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}
	return domain.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		Merged:    pr.GetMerged() || pr.MergedAt != nil,
		Draft:     pr.GetDraft(),
		BaseRef:   pr.GetBase().GetRef(),
		HeadRef:   pr.GetHead().GetRef(),
		HeadSHA:   pr.GetHead().GetSHA(),
		Labels:    labels,
		Author:    mapAuthor(pr.GetUser()),
		WebURL:    pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}
}
