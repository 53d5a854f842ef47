package domain

import (
	"context"
	"time"
)

// Provider is the hosting-provider API handle. Listing calls fetch exactly
// one page and report whether more pages remain, so the importer can
// interleave its rate limiter and abort checks between pages; the page loop
// never lives in the adapter.
type Provider interface {
	// Name keys the rate limiter, identity maps, and bridge cache
	Name() string

	// ValidateToken confirms the token works and returns the authenticated
	// username
	ValidateToken(ctx context.Context) (string, error)

	GetRepo(ctx context.Context, owner, name string) (RepoMeta, error)
	CreateFork(ctx context.Context, owner, name, forkName string) (RepoMeta, error)

	ListIssues(ctx context.Context, owner, name string, page, perPage int, since *time.Time) ([]Issue, bool, error)
	ListPullRequests(ctx context.Context, owner, name string, page, perPage int) ([]PullRequest, bool, error)
	ListIssueComments(ctx context.Context, owner, name string, number, page, perPage int) ([]Comment, bool, error)

	// ListAllComments is the bulk endpoint (every comment in the repo in one
	// paginated stream). HasBulkComments gates it
	HasBulkComments() bool
	ListAllComments(ctx context.Context, owner, name string, page, perPage int, since *time.Time) ([]Comment, bool, error)

	// ListPRCommits is optional provenance enrichment. HasCommitListing gates it
	HasCommitListing() bool
	ListPRCommits(ctx context.Context, owner, name string, number int) ([]string, error)

	// GetGist fetches a hosted proof artifact for the identity bridger,
	// returning its owner login and raw content
	GetGist(ctx context.Context, id string) (owner, content string, err error)
}

// RetryAfterHinter is implemented by provider errors that carry a
// server-suggested wait; the retry wrapper prefers the hint over its own
// exponential backoff
type RetryAfterHinter interface {
	RetryAfter() time.Duration
}

// ImporterPort is the surface the binaries and the API module consume
type ImporterPort interface {
	// ImportRepository runs one import to completion; a second call while one
	// is in flight fails immediately with a conflict error
	ImportRepository(ctx context.Context, repoURL, token string, cfg Config) (*Result, error)

	// AbortImport requests cooperative cancellation of the in-flight run
	AbortImport(reason string)

	// Snapshot returns the latest progress tick (zero value when idle)
	Snapshot() Progress
}
