package service

import (
	"context"
	"strings"

	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// resolveTarget validates the token, resolves the source repository, and
// decides which repository the import is announced under. Writing history
// for a repo you do not own requires a fork; the resolver creates one when
// the run allows it and fails fast when it does not
func (s *Svc) resolveTarget(ctx context.Context, tok *abortToken, pc *pacer, sess *session) error {
	var login string
	err := s.withRetry(ctx, tok, pc, "validate_token", func() error {
		var err error
		login, err = sess.provider.ValidateToken(ctx)
		return err
	})
	if err != nil {
		return err
	}
	sess.login = login

	var meta domain.RepoMeta
	err = s.withRetry(ctx, tok, pc, "get_repo", func() error {
		var err error
		meta, err = sess.provider.GetRepo(ctx, sess.ref.Owner, sess.ref.Name)
		return err
	})
	if err != nil {
		return err
	}

	if strings.EqualFold(meta.Owner, login) {
		sess.repo = meta
		return nil
	}

	if !sess.cfg.ForkIfNotOwner {
		return perr.Forbiddenf(
			"%s is owned by %s, not %s; rerun with forking enabled to import it",
			meta.FullName, meta.Owner, login,
		)
	}

	forkName := sess.cfg.ForkName
	if forkName == "" {
		forkName = meta.Name + "-imported"
	}
	s.log.Info().
		Str("source", meta.FullName).
		Str("fork", login+"/"+forkName).
		Msg("not the repository owner, forking")

	var fork domain.RepoMeta
	err = s.withRetry(ctx, tok, pc, "create_fork", func() error {
		var err error
		fork, err = sess.provider.CreateFork(ctx, sess.ref.Owner, sess.ref.Name, forkName)
		return err
	})
	if err != nil {
		return err
	}

	// fork creation is asynchronous upstream; a partial answer means the
	// fork exists but its metadata is not ready, so refetch once
	if fork.ID == 0 {
		err = s.withRetry(ctx, tok, pc, "get_repo", func() error {
			var err error
			fork, err = sess.provider.GetRepo(ctx, login, forkName)
			return err
		})
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "fork created but not yet readable")
		}
	}
	// the fork only anchors the announcement and event addresses; issues,
	// pulls, and comments keep coming from sess.ref (a fork starts with none)
	sess.repo = fork
	return nil
}
