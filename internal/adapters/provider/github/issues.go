package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"forgeport/internal/services/importer/domain"
)

// ListIssues fetches one page of issues, oldest first. Pull requests ride
// the issues endpoint on GitHub and are filtered out here, so the "more
// pages" signal comes from the response, not the filtered item count
func (c *Client) ListIssues(
	ctx context.Context, owner, name string, page, perPage int, since *time.Time,
) ([]domain.Issue, bool, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}
	if since != nil {
		opts.Since = *since
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
	if err != nil {
		return nil, false, translate(err, "list issues")
	}

	out := make([]domain.Issue, 0, len(issues))
	for _, is := range issues {
		if is.IsPullRequest() {
			continue
		}
		out = append(out, mapIssue(is))
	}
	return out, resp.NextPage != 0, nil
}

func mapIssue(is *gh.Issue) domain.Issue {
	labels := make([]string, 0, len(is.Labels))
	for _, l := range is.Labels {
		labels = append(labels, l.GetName())
	}
	return domain.Issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		Body:      is.GetBody(),
		State:     is.GetState(),
		Labels:    labels,
		Author:    mapAuthor(is.GetUser()),
		WebURL:    is.GetHTMLURL(),
		CreatedAt: is.GetCreatedAt().Time,
		UpdatedAt: is.GetUpdatedAt().Time,
	}
}
