package service

import (
	"context"
	"fmt"
	"time"

	"forgeport/internal/eventlog"
	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// ImportRepository runs one full import: resolve the target, announce the
// repository, stream issues, pull requests, and comments into signed events,
// then publish the derived profiles. A single run is allowed at a time
func (s *Svc) ImportRepository(
	ctx context.Context, repoURL, token string, cfg domain.Config,
) (res *domain.Result, err error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}
	ref, err := parseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	if s.publisher == nil || s.signer == nil {
		return nil, perr.Internalf("importer has no signer/publisher wired")
	}
	if s.newProvider == nil {
		return nil, perr.Internalf("importer has no provider factory wired")
	}

	if !s.importing.CompareAndSwap(false, true) {
		return nil, perr.Conflictf("an import is already running")
	}
	defer s.importing.Store(false)

	tok := newAbortToken()
	s.current.Store(tok)

	provider := s.newProvider(ctx, token)
	sess := newSession(provider, ref, cfg, time.Now())

	started := time.Now()
	s.log.Info().
		Str("run_id", sess.runID).
		Str("repo", ref.FullName()).
		Msg("import starting")

	defer func() {
		if err != nil {
			s.emit(domain.Progress{
				RunID:      sess.runID,
				Step:       s.Snapshot().Step,
				IsComplete: true,
				Error:      err.Error(),
			})
			status := "failed"
			if perr.IsAbort(err) {
				status = "aborted"
			}
			s.finishRun(ctx, sess, status, err)
			s.log.Error().Err(err).Str("run_id", sess.runID).Msg("import did not complete")
			return
		}
		s.log.Info().
			Str("run_id", sess.runID).
			Dur("elapsed", time.Since(started)).
			Int("issues", res.IssuesImported).
			Int("pulls", res.PullsImported).
			Int("comments", res.CommentsImported).
			Int("failed_events", res.FailedEvents).
			Msg("import complete")
	}()

	s.tick(sess, StepResolving, 0, 0)
	if err = s.resolveTarget(ctx, tok, s.pacerFor(sess), sess); err != nil {
		return nil, err
	}

	pc := s.pacerFor(sess)
	s.insertRun(ctx, sess)

	s.tick(sess, StepAnnouncing, 0, 0)
	repoEv, stateEv, err := s.announce(ctx, tok, sess)
	if err != nil {
		return nil, err
	}

	if cfg.MirrorIssues {
		if err = s.importIssues(ctx, tok, pc, sess); err != nil {
			return nil, err
		}
	}
	if cfg.MirrorPulls {
		if err = s.importPulls(ctx, tok, pc, sess); err != nil {
			return nil, err
		}
	}
	if cfg.MirrorComments {
		if err = s.importComments(ctx, tok, pc, sess); err != nil {
			return nil, err
		}
	}

	s.tick(sess, StepPublishingProfiles, 0, len(sess.profileEvents))
	for _, ev := range sess.profileEvents {
		if err = s.enqueue(ctx, tok, sess, ev); err != nil {
			return nil, err
		}
	}

	s.tick(sess, StepFinalizing, 0, 0)
	if err = s.flush(ctx, tok, sess); err != nil {
		return nil, err
	}

	res = &domain.Result{
		RepoEvent:        repoEv,
		StateEvent:       stateEv,
		IssuesImported:   sess.issues,
		PullsImported:    sess.pulls,
		CommentsImported: sess.comments,
		ProfilesCreated:  len(sess.profileEvents),
		FailedEvents:     int(sess.failed),
		Repo:             sess.repo,
	}
	s.finishRun(ctx, sess, "complete", nil)
	s.emit(domain.Progress{RunID: sess.runID, Step: StepComplete, IsComplete: true})
	return res, nil
}

// announce signs and queues the repository announcement and state events
// under the host identity, then fixes the session's announcement address
func (s *Svc) announce(
	ctx context.Context, tok *abortToken, sess *session,
) (*eventlog.Event, *eventlog.Event, error) {
	repoEv, err := s.signAndEnqueue(ctx, tok, sess, s.signer,
		repoAnnouncementTemplate(sess.repo, sess.cfg.Relays, sess.nextTimestamp()))
	if err != nil {
		return nil, nil, err
	}
	sess.repoAddr = fmt.Sprintf("%d:%s:%s",
		eventlog.KindRepoAnnouncement, repoEv.Pubkey, sess.repo.Name)

	stateEv, err := s.signAndEnqueue(ctx, tok, sess, s.signer,
		repoStateTemplate(sess.repo, "", sess.nextTimestamp()))
	if err != nil {
		return nil, nil, err
	}
	return repoEv, stateEv, nil
}

func (s *Svc) pacerFor(sess *session) *pacer {
	if sess.pacer == nil {
		sess.pacer = newPacer(s.config.MinSpacing)
	}
	return sess.pacer
}

func (s *Svc) insertRun(ctx context.Context, sess *session) {
	if s.archive == nil {
		return
	}
	if err := s.archive.InsertRun(ctx, sess.runID, sess.repo.FullName, sess.cfg); err != nil {
		s.log.Warn().Err(err).Msg("archive run insert failed")
	}
}

func (s *Svc) finishRun(ctx context.Context, sess *session, status string, runErr error) {
	if s.archive == nil {
		return
	}
	if err := s.archive.FinishRun(ctx, sess.runID, status, runErr,
		sess.issues, sess.pulls, sess.comments, int(sess.failed)); err != nil {
		s.log.Warn().Err(err).Msg("archive run finish failed")
	}
}

func validateRunConfig(cfg domain.Config) error {
	if len(cfg.Relays) == 0 {
		return perr.Validationf("at least one relay is required")
	}
	for _, r := range cfg.Relays {
		if r == "" {
			return perr.Validationf("relay URLs must be non-empty")
		}
	}
	if cfg.BatchSize < 0 || cfg.BatchSize > 500 {
		return perr.Validationf("batch size must be between 1 and 500")
	}
	return nil
}
