package github

import (
	"context"
	stderrs "errors"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"forgeport/internal/services/importer/domain"
)

// GetRepo fetches repository metadata; a 404 doubles as the read-permission
// probe for private repos
func (c *Client) GetRepo(ctx context.Context, owner, name string) (domain.RepoMeta, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return domain.RepoMeta{}, translate(err, "get repo")
	}
	return mapRepo(repo), nil
}

// CreateFork forks owner/name into the authenticated user's account.
// GitHub forks asynchronously and answers 202; the returned metadata may be
// partial (zero ID), in which case the resolver refetches once
func (c *Client) CreateFork(ctx context.Context, owner, name, forkName string) (domain.RepoMeta, error) {
	opts := &gh.RepositoryCreateForkOptions{}
	if forkName != "" {
		opts.Name = forkName
	}
	repo, _, err := c.gh.Repositories.CreateFork(ctx, owner, name, opts)

	var accepted *gh.AcceptedError
	if stderrs.As(err, &accepted) {
		// fork scheduled; metadata not final yet
		c.log.Debug().Str("repo", owner+"/"+name).Msg("fork accepted, metadata pending")
		return domain.RepoMeta{Owner: owner, Name: forkName, Fork: true}, nil
	}
	if err != nil {
		return domain.RepoMeta{}, translate(err, "create fork")
	}
	return mapRepo(repo), nil
}

// GetGist fetches a proof artifact for the identity bridger. All files of
// the gist are concatenated; proofs are single-file in practice
func (c *Client) GetGist(ctx context.Context, id string) (string, string, error) {
	gist, _, err := c.gh.Gists.Get(ctx, id)
	if err != nil {
		return "", "", translate(err, "get gist")
	}
	var sb strings.Builder
	for _, f := range gist.Files {
		sb.WriteString(f.GetContent())
		sb.WriteString("\n")
	}
	return gist.GetOwner().GetLogin(), sb.String(), nil
}

func mapRepo(r *gh.Repository) domain.RepoMeta {
	if r == nil {
		return domain.RepoMeta{}
	}
	return domain.RepoMeta{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		CloneURL:      r.GetCloneURL(),
		WebURL:        r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Fork:          r.GetFork(),
	}
}

func mapAuthor(u *gh.User) domain.Author {
	if u == nil {
		return domain.Author{}
	}
	display := u.GetName()
	if display == "" {
		display = u.GetLogin()
	}
	return domain.Author{
		Username:    u.GetLogin(),
		DisplayName: display,
		AvatarURL:   u.GetAvatarURL(),
	}
}
