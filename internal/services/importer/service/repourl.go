package service

import (
	"strings"

	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// parseRepoURL canonicalizes the many spellings of a GitHub repository into
// an owner/name pair: https URLs, ssh URLs, and the bare "owner/repo" form
func parseRepoURL(raw string) (domain.RepoRef, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	switch {
	case strings.HasPrefix(s, "git@"):
		// git@github.com:owner/repo
		rest := strings.TrimPrefix(s, "git@")
		host, path, ok := strings.Cut(rest, ":")
		if !ok || !isGitHubHost(host) {
			return domain.RepoRef{}, perr.Validationf("unsupported repository host in %q", raw)
		}
		s = path
	case strings.Contains(s, "://"):
		_, rest, _ := strings.Cut(s, "://")
		host, path, ok := strings.Cut(rest, "/")
		if !ok || !isGitHubHost(host) {
			return domain.RepoRef{}, perr.Validationf("unsupported repository host in %q", raw)
		}
		s = path
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.RepoRef{}, perr.Validationf("cannot parse repository reference %q", raw)
	}
	return domain.RepoRef{
		Provider: domain.PlatformGitHub,
		Owner:    parts[0],
		Name:     parts[1],
	}, nil
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}
