// Package throttle bounds how many submission pipelines run simultaneously.
package throttle

import (
	"context"
	"time"

	appErr "testroyale/pkg/errors"
)

// Throttle is a counting limiter with a fixed capacity. Waiters are served
// in FIFO order. MaxWait of zero preserves the baseline unbounded-wait
// contract; a positive value bounds the queue time and surfaces the latent
// starvation risk as an explicit error instead.
type Throttle struct {
	tokens  chan struct{}
	maxWait time.Duration
}

// New creates a throttle admitting at most capacity concurrent holders.
func New(capacity int, maxWait time.Duration) *Throttle {
	if capacity <= 0 {
		capacity = 1
	}
	tokens := make(chan struct{}, capacity)
	for i := 0; i < capacity; i++ {
		tokens <- struct{}{}
	}
	return &Throttle{tokens: tokens, maxWait: maxWait}
}

// Acquire blocks until a slot is available, ctx is canceled, or the
// configured maximum wait elapses.
func (t *Throttle) Acquire(ctx context.Context) error {
	waitCtx := ctx
	if t.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.maxWait)
		defer cancel()
	}

	select {
	case <-t.tokens:
		return nil
	case <-waitCtx.Done():
		if ctx.Err() == nil {
			return appErr.New(appErr.PipelineBusy).WithMessage("timed out waiting for a pipeline slot")
		}
		return appErr.Wrap(ctx.Err(), appErr.Timeout)
	}
}

// Release returns a slot to the throttle.
func (t *Throttle) Release() {
	select {
	case t.tokens <- struct{}{}:
	default:
	}
}

// InUse reports how many slots are currently held.
func (t *Throttle) InUse() int {
	return cap(t.tokens) - len(t.tokens)
}
