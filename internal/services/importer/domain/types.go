// Package domain defines the importer's types and ports
package domain

import (
	"time"

	"forgeport/internal/eventlog"
)

// PlatformGitHub is the only provider shipped today; the identity maps and
// bridge cache are keyed by platform so more can follow
const PlatformGitHub = "github"

// RepoRef is a parsed repository reference
type RepoRef struct {
	Provider string
	Owner    string
	Name     string
}

// FullName returns "owner/name"
func (r RepoRef) FullName() string { return r.Owner + "/" + r.Name }

// RepoMeta is the resolved target repository metadata
type RepoMeta struct {
	ID            int64  `json:"id"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	CloneURL      string `json:"clone_url"`
	WebURL        string `json:"web_url"`
	DefaultBranch string `json:"default_branch"`
	Fork          bool   `json:"fork"`
}

// Author is the inline author record every provider payload carries
type Author struct {
	Username    string
	DisplayName string
	AvatarURL   string
}

// Issue is a provider-neutral issue record
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	Labels    []string
	Author    Author
	WebURL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PullRequest is a provider-neutral pull request record
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	State     string
	Merged    bool
	Draft     bool
	BaseRef   string
	HeadRef   string
	HeadSHA   string
	Labels    []string
	Author    Author
	WebURL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a provider-neutral issue or PR comment
type Comment struct {
	ID          int64
	ParentIssue int // issue or PR number the comment belongs to
	Body        string
	Author      Author
	WebURL      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Config is the immutable per-run input
type Config struct {
	MirrorIssues   bool          `json:"mirror_issues"`
	MirrorPulls    bool          `json:"mirror_pulls"`
	MirrorComments bool          `json:"mirror_comments"`
	ForkIfNotOwner bool          `json:"fork_if_not_owner"`
	Since          *time.Time    `json:"since,omitempty"`
	Relays         []string      `json:"relays" validate:"required,min=1,dive,required"`
	BatchSize      int           `json:"batch_size" validate:"omitempty,min=1,max=500"`
	BatchDelay     time.Duration `json:"-"`
	ForkName       string        `json:"fork_name,omitempty"`
}

// Result is assembled at the end of a successful run
type Result struct {
	RepoEvent        *eventlog.Event `json:"repo_event"`
	StateEvent       *eventlog.Event `json:"state_event"`
	IssuesImported   int             `json:"issues_imported"`
	PullsImported    int             `json:"pulls_imported"`
	CommentsImported int             `json:"comments_imported"`
	ProfilesCreated  int             `json:"profiles_created"`
	FailedEvents     int             `json:"failed_events"`
	Repo             RepoMeta        `json:"repo"`
}

// Progress is one tick of the progress stream
type Progress struct {
	RunID      string `json:"run_id"`
	Step       string `json:"step"`
	Current    int    `json:"current,omitempty"`
	Total      int    `json:"total,omitempty"`
	Retry      string `json:"retry,omitempty"` // provider method in backoff while a retry wait is pending
	IsComplete bool   `json:"is_complete"`
	Error      string `json:"error,omitempty"`
}

// ProgressFunc receives progress ticks; it must be cheap and non-blocking
type ProgressFunc func(Progress)
