package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"forgeport/internal/eventlog"
	perr "forgeport/internal/platform/errors"
)

// enqueue buffers a signed event and flushes once the batch is full. The
// inter-batch delay keeps slow relays from being firehosed
func (s *Svc) enqueue(ctx context.Context, tok *abortToken, sess *session, ev *eventlog.Event) error {
	sess.queue = append(sess.queue, ev)
	if len(sess.queue) < s.batchSize(sess) {
		return nil
	}
	if err := s.flush(ctx, tok, sess); err != nil {
		return err
	}
	return tok.Sleep(ctx, s.batchDelay(sess))
}

// flush publishes the buffered batch concurrently. Individual publish
// failures are counted, logged, and left behind; they never stop the run
func (s *Svc) flush(ctx context.Context, tok *abortToken, sess *session) error {
	if err := tok.Check(); err != nil {
		return err
	}
	if len(sess.queue) == 0 {
		return nil
	}
	batch := sess.queue
	sess.queue = nil

	var wg sync.WaitGroup
	for _, ev := range batch {
		wg.Add(1)
		go func(ev *eventlog.Event) {
			defer wg.Done()
			if err := s.publisher.Publish(ctx, ev); err != nil {
				atomic.AddInt64(&sess.failed, 1)
				s.log.Warn().
					Err(err).
					Str("event_id", ev.ID).
					Int("kind", ev.Kind).
					Msg("publish failed, continuing")
				s.recordEvent(ctx, sess, ev, err)
				return
			}
			s.recordEvent(ctx, sess, ev, nil)
		}(ev)
	}
	wg.Wait()
	return nil
}

// recordEvent archives the publish outcome when a database is attached
func (s *Svc) recordEvent(ctx context.Context, sess *session, ev *eventlog.Event, pubErr error) {
	if s.archive == nil {
		return
	}
	if err := s.archive.RecordEvent(ctx, sess.runID, ev, pubErr); err != nil {
		s.log.Warn().Err(err).Str("event_id", ev.ID).Msg("archive write failed")
	}
}

func (s *Svc) batchSize(sess *session) int {
	if sess.cfg.BatchSize > 0 {
		return sess.cfg.BatchSize
	}
	return s.config.BatchSize
}

func (s *Svc) batchDelay(sess *session) time.Duration {
	if sess.cfg.BatchDelay > 0 {
		return sess.cfg.BatchDelay
	}
	return s.config.BatchDelay
}

// signAndEnqueue signs a template with the session signer or a derived
// keypair and buffers the result
func (s *Svc) signAndEnqueue(
	ctx context.Context, tok *abortToken, sess *session,
	signer eventlog.Signer, tmpl *eventlog.Template,
) (*eventlog.Event, error) {
	ev, err := signer.Sign(ctx, tmpl)
	if err != nil {
		return nil, perr.WrapIf(err, perr.ErrorCodeUnknown, "event signing failed")
	}
	if err := s.enqueue(ctx, tok, sess, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
