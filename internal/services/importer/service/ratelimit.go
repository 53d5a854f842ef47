package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// pacer spaces provider calls per method so a burst of page fetches cannot
// trip the upstream abuse limiter. Limiters are created lazily per key
type pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	spacing  time.Duration
}

func newPacer(spacing time.Duration) *pacer {
	return &pacer{
		limiters: make(map[string]*rate.Limiter),
		spacing:  spacing,
	}
}

func (p *pacer) limiter(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	lim, ok := p.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(p.spacing), 1)
		p.limiters[key] = lim
	}
	return lim
}

// Wait blocks until the method's limiter admits one call
func (p *pacer) Wait(ctx context.Context, key string) error {
	if err := p.limiter(key).Wait(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "rate limiter wait")
	}
	return nil
}

// withRetry runs op under the pacer with bounded retries. Transient failures
// back off exponentially; a provider retry-after hint overrides the computed
// backoff; aborted and non-retryable errors surface immediately
func (s *Svc) withRetry(ctx context.Context, tok *abortToken, pc *pacer, method string, op func() error) error {
	var last error
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		if err := tok.Check(); err != nil {
			return err
		}
		if err := pc.Wait(ctx, method); err != nil {
			return err
		}
		if err := tok.Check(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if perr.IsAbort(err) || !perr.Retryable(err) {
			return err
		}
		last = err

		delay := s.config.RetryBase << uint(attempt)
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		var hinter domain.RetryAfterHinter
		if errors.As(err, &hinter) {
			if after := hinter.RetryAfter(); after > delay {
				delay = after
			}
		}
		s.log.Warn().
			Err(err).
			Str("method", method).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("provider call failed, retrying")

		// surface the wait on the progress stream, and clear it once over
		snap := s.Snapshot()
		snap.Retry = method
		s.emit(snap)
		if err := tok.Sleep(ctx, delay); err != nil {
			return err
		}
		snap.Retry = ""
		s.emit(snap)
	}
	return perr.Wrapf(last, perr.ErrorCodeUnavailable, "%s: retries exhausted", method)
}
