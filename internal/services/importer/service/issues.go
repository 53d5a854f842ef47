package service

import (
	"context"

	"forgeport/internal/services/importer/domain"
)

// importIssues walks every issue oldest first, one signed event per issue
func (s *Svc) importIssues(ctx context.Context, tok *abortToken, pc *pacer, sess *session) error {
	s.tick(sess, StepImportingIssues, 0, 0)

	page := 1
	for {
		if err := tok.Check(); err != nil {
			return err
		}

		var (
			items []domain.Issue
			more  bool
		)
		err := s.withRetry(ctx, tok, pc, "list_issues", func() error {
			var err error
			items, more, err = sess.provider.ListIssues(
				ctx, sess.ref.Owner, sess.ref.Name, page, s.config.PageSize, sess.cfg.Since)
			return err
		})
		if err != nil {
			return err
		}

		for _, is := range items {
			if sinceSkips(sess.cfg, is.UpdatedAt) {
				continue
			}
			if err := s.importOneIssue(ctx, tok, sess, is); err != nil {
				return err
			}
			sess.issues++
			if sess.issues%s.config.ProgressEvery == 0 {
				s.tick(sess, StepImportingIssues, sess.issues, 0)
			}
		}

		if !more {
			break
		}
		page++
	}

	s.tick(sess, StepImportingIssues, sess.issues, sess.issues)
	return s.flush(ctx, tok, sess)
}

func (s *Svc) importOneIssue(ctx context.Context, tok *abortToken, sess *session, is domain.Issue) error {
	kp, bridged, err := s.ensureProfile(ctx, tok, sess, is.Author)
	if err != nil {
		return err
	}

	tmpl := issueTemplate(is, sess.repoAddr, is.WebURL, sess.nextTimestamp())
	if bridged != "" {
		tmpl.Tags = append(tmpl.Tags, mentionTag(bridged))
	}
	ev, err := s.signAndEnqueue(ctx, tok, sess, kp, tmpl)
	if err != nil {
		return err
	}
	sess.issueEvents[is.Number] = ev.ID
	return nil
}
