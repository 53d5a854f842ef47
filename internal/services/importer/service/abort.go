package service

import (
	"context"
	"sync"
	"time"

	perr "forgeport/internal/platform/errors"
)

// abortToken carries a cooperative cancellation request through one run.
// Abort flips it exactly once; every loop and sleep checks it and unwinds
// with an aborted error that is never retried or wrapped away
type abortToken struct {
	mu        sync.Mutex
	requested bool
	reason    string
	done      chan struct{}
}

func newAbortToken() *abortToken {
	return &abortToken{done: make(chan struct{})}
}

// Abort records the reason and wakes any in-flight Sleep. Later calls keep
// the first reason
func (t *abortToken) Abort(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.requested {
		return
	}
	t.requested = true
	t.reason = reason
	close(t.done)
}

// Check returns an aborted error once Abort has been called, nil before
func (t *abortToken) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.requested {
		return perr.Abortedf("import aborted: %s", t.reason)
	}
	return nil
}

// Sleep waits d unless the token or the context fires first. Waiting out a
// backoff must not delay cancellation, so all three are raced
func (t *abortToken) Sleep(ctx context.Context, d time.Duration) error {
	if err := t.Check(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-t.done:
		return t.Check()
	case <-ctx.Done():
		return perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "import interrupted")
	}
}
