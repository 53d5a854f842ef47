package service

import (
	"context"

	"forgeport/internal/services/importer/domain"
)

// importComments threads comments under the issue and PR events published
// earlier. The bulk repo-wide stream is preferred; providers without one get
// a per-parent sub-loop. Comments whose parent never produced an event
// (filtered out, or outside the since window) are skipped and logged
func (s *Svc) importComments(ctx context.Context, tok *abortToken, pc *pacer, sess *session) error {
	s.tick(sess, StepImportingComments, 0, 0)

	var err error
	if sess.provider.HasBulkComments() {
		err = s.importCommentsBulk(ctx, tok, pc, sess)
	} else {
		err = s.importCommentsPerParent(ctx, tok, pc, sess)
	}
	if err != nil {
		return err
	}

	s.tick(sess, StepImportingComments, sess.comments, sess.comments)
	return s.flush(ctx, tok, sess)
}

func (s *Svc) importCommentsBulk(ctx context.Context, tok *abortToken, pc *pacer, sess *session) error {
	page := 1
	for {
		if err := tok.Check(); err != nil {
			return err
		}

		var (
			items []domain.Comment
			more  bool
		)
		err := s.withRetry(ctx, tok, pc, "list_all_comments", func() error {
			var err error
			items, more, err = sess.provider.ListAllComments(
				ctx, sess.ref.Owner, sess.ref.Name, page, s.config.PageSize, sess.cfg.Since)
			return err
		})
		if err != nil {
			return err
		}

		for _, cm := range items {
			if err := s.importOneComment(ctx, tok, sess, cm); err != nil {
				return err
			}
		}

		if !more {
			break
		}
		page++
	}
	return nil
}

func (s *Svc) importCommentsPerParent(ctx context.Context, tok *abortToken, pc *pacer, sess *session) error {
	parents := make([]int, 0, len(sess.issueEvents)+len(sess.pullEvents))
	for n := range sess.issueEvents {
		parents = append(parents, n)
	}
	for n := range sess.pullEvents {
		parents = append(parents, n)
	}

	for _, number := range parents {
		page := 1
		for {
			if err := tok.Check(); err != nil {
				return err
			}

			var (
				items []domain.Comment
				more  bool
			)
			err := s.withRetry(ctx, tok, pc, "list_issue_comments", func() error {
				var err error
				items, more, err = sess.provider.ListIssueComments(
					ctx, sess.ref.Owner, sess.ref.Name, number, page, s.config.PageSize)
				return err
			})
			if err != nil {
				return err
			}

			for _, cm := range items {
				if err := s.importOneComment(ctx, tok, sess, cm); err != nil {
					return err
				}
			}

			if !more {
				break
			}
			page++
		}
	}
	return nil
}

func (s *Svc) importOneComment(ctx context.Context, tok *abortToken, sess *session, cm domain.Comment) error {
	if sinceSkips(sess.cfg, cm.UpdatedAt) {
		return nil
	}
	rootID, ok := sess.issueEvents[cm.ParentIssue]
	if !ok {
		rootID, ok = sess.pullEvents[cm.ParentIssue]
	}
	if !ok {
		s.log.Debug().
			Int64("comment", cm.ID).
			Int("parent", cm.ParentIssue).
			Msg("skipping comment whose parent produced no event")
		return nil
	}

	kp, bridged, err := s.ensureProfile(ctx, tok, sess, cm.Author)
	if err != nil {
		return err
	}

	tmpl := commentTemplate(cm, rootID, sess.repoAddr, sess.nextTimestamp())
	if bridged != "" {
		tmpl.Tags = append(tmpl.Tags, mentionTag(bridged))
	}
	ev, err := s.signAndEnqueue(ctx, tok, sess, kp, tmpl)
	if err != nil {
		return err
	}
	sess.commentEvents[cm.ID] = ev.ID
	sess.comments++
	if sess.comments%s.config.ProgressEvery == 0 {
		s.tick(sess, StepImportingComments, sess.comments, 0)
	}
	return nil
}
