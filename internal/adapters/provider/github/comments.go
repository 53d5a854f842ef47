package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"forgeport/internal/services/importer/domain"
)

// ListIssueComments fetches one page of comments for a single issue or PR
func (c *Client) ListIssueComments(
	ctx context.Context, owner, name string, number, page, perPage int,
) ([]domain.Comment, bool, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}
	comments, resp, err := c.gh.Issues.ListComments(ctx, owner, name, number, opts)
	if err != nil {
		return nil, false, translate(err, "list issue comments")
	}
	out := make([]domain.Comment, 0, len(comments))
	for _, cm := range comments {
		out = append(out, mapComment(cm, number))
	}
	return out, resp.NextPage != 0, nil
}

// HasBulkComments reports that GitHub can stream every comment in the repo
// in one paginated pass (issue number 0 on the comments endpoint)
func (c *Client) HasBulkComments() bool { return true }

// ListAllComments fetches one page of the repo-wide comment stream, oldest
// first. The parent issue number is recovered from each comment's issue URL
func (c *Client) ListAllComments(
	ctx context.Context, owner, name string, page, perPage int, since *time.Time,
) ([]domain.Comment, bool, error) {
	sort := "created"
	direction := "asc"
	opts := &gh.IssueListCommentsOptions{
		Sort:        &sort,
		Direction:   &direction,
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}
	if since != nil {
		opts.Since = since
	}
	comments, resp, err := c.gh.Issues.ListComments(ctx, owner, name, 0, opts)
	if err != nil {
		return nil, false, translate(err, "list all comments")
	}
	out := make([]domain.Comment, 0, len(comments))
	for _, cm := range comments {
		out = append(out, mapComment(cm, parseIssueNumber(cm.GetIssueURL())))
	}
	return out, resp.NextPage != 0, nil
}

func mapComment(cm *gh.IssueComment, parent int) domain.Comment {
	return domain.Comment{
		ID:          cm.GetID(),
		ParentIssue: parent,
		Body:        cm.GetBody(),
		Author:      mapAuthor(cm.GetUser()),
		WebURL:      cm.GetHTMLURL(),
		CreatedAt:   cm.GetCreatedAt().Time,
		UpdatedAt:   cm.GetUpdatedAt().Time,
	}
}
