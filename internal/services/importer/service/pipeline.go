package service

import (
	"time"

	"forgeport/internal/services/importer/domain"
)

// Progress step names, in run order
const (
	StepResolving          = "resolving"
	StepAnnouncing         = "announcing"
	StepImportingIssues    = "importing_issues"
	StepImportingPulls     = "importing_pulls"
	StepImportingComments  = "importing_comments"
	StepPublishingProfiles = "publishing_profiles"
	StepFinalizing         = "finalizing"
	StepComplete           = "complete"
)

func (s *Svc) tick(sess *session, step string, current, total int) {
	s.emit(domain.Progress{
		RunID:   sess.runID,
		Step:    step,
		Current: current,
		Total:   total,
	})
}

// sinceSkips reports whether an item last touched before the cutoff should
// be dropped. Listings the provider cannot filter server-side get filtered
// here
func sinceSkips(cfg domain.Config, updatedAt time.Time) bool {
	return cfg.Since != nil && updatedAt.Before(*cfg.Since)
}
