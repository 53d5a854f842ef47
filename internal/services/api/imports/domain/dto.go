// Package domain defines transport DTOs for the imports API
package domain

import "time"

// StartImportInput is the POST /imports payload
type StartImportInput struct {
	RepoURL        string     `json:"repo_url"          validate:"required"`
	Token          string     `json:"token"             validate:"required"`
	Relays         []string   `json:"relays"            validate:"required,min=1,dive,required"`
	MirrorIssues   bool       `json:"mirror_issues"`
	MirrorPulls    bool       `json:"mirror_pulls"`
	MirrorComments bool       `json:"mirror_comments"`
	ForkIfNotOwner bool       `json:"fork_if_not_owner"`
	Since          *time.Time `json:"since,omitempty"`
	BatchSize      int        `json:"batch_size,omitempty"     validate:"omitempty,min=1,max=500"`
	BatchDelayMS   int        `json:"batch_delay_ms,omitempty" validate:"omitempty,min=0,max=600000"`
	ForkName       string     `json:"fork_name,omitempty"`
}

// StartImportResponse acknowledges an accepted import
type StartImportResponse struct {
	Started bool   `json:"started" example:"true"`
	Repo    string `json:"repo"    example:"octocat/hello-world"`
}

// AbortInput is the DELETE /imports/current payload
type AbortInput struct {
	Reason string `json:"reason,omitempty" example:"operator requested"`
}

// AbortResponse acknowledges an abort request
type AbortResponse struct {
	Aborted bool `json:"aborted" example:"true"`
}
