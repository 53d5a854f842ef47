package service

import (
	"context"

	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// importPulls walks every pull request oldest first. Each PR becomes one
// signed event plus a status event when it ended merged or closed
func (s *Svc) importPulls(ctx context.Context, tok *abortToken, pc *pacer, sess *session) error {
	s.tick(sess, StepImportingPulls, 0, 0)

	page := 1
	for {
		if err := tok.Check(); err != nil {
			return err
		}

		var (
			items []domain.PullRequest
			more  bool
		)
		err := s.withRetry(ctx, tok, pc, "list_pulls", func() error {
			var err error
			items, more, err = sess.provider.ListPullRequests(
				ctx, sess.ref.Owner, sess.ref.Name, page, s.config.PageSize)
			return err
		})
		if err != nil {
			return err
		}

		for _, pr := range items {
			if sinceSkips(sess.cfg, pr.UpdatedAt) {
				continue
			}
			if err := s.importOnePull(ctx, tok, pc, sess, pr); err != nil {
				return err
			}
			sess.pulls++
			if sess.pulls%s.config.ProgressEvery == 0 {
				s.tick(sess, StepImportingPulls, sess.pulls, 0)
			}
		}

		if !more {
			break
		}
		page++
	}

	s.tick(sess, StepImportingPulls, sess.pulls, sess.pulls)
	return s.flush(ctx, tok, sess)
}

func (s *Svc) importOnePull(
	ctx context.Context, tok *abortToken, pc *pacer, sess *session, pr domain.PullRequest,
) error {
	kp, bridged, err := s.ensureProfile(ctx, tok, sess, pr.Author)
	if err != nil {
		return err
	}

	// commit SHAs are decoration; losing them must not lose the PR
	var commits []string
	if sess.provider.HasCommitListing() {
		err := s.withRetry(ctx, tok, pc, "list_pr_commits", func() error {
			var err error
			commits, err = sess.provider.ListPRCommits(ctx, sess.ref.Owner, sess.ref.Name, pr.Number)
			return err
		})
		if err != nil {
			if perr.IsAbort(err) {
				return err
			}
			s.log.Warn().Err(err).Int("pr", pr.Number).Msg("commit listing failed, importing without commits")
			commits = nil
		}
	}

	tmpl := pullTemplate(pr, sess.repoAddr, commits, sess.nextTimestamp())
	if bridged != "" {
		tmpl.Tags = append(tmpl.Tags, mentionTag(bridged))
	}
	ev, err := s.signAndEnqueue(ctx, tok, sess, kp, tmpl)
	if err != nil {
		return err
	}
	sess.pullEvents[pr.Number] = ev.ID

	if pr.Merged || pr.State == "closed" {
		st := statusTemplate(statusKind(pr.State, pr.Merged, pr.Draft), ev.ID, sess.repoAddr, sess.nextTimestamp())
		if _, err := s.signAndEnqueue(ctx, tok, sess, kp, st); err != nil {
			return err
		}
	}
	return nil
}
