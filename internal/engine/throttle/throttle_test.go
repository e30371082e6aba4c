package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appErr "testroyale/pkg/errors"
)

func TestAcquireRelease(t *testing.T) {
	th := New(2, 0)

	if err := th.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := th.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := th.InUse(); got != 2 {
		t.Errorf("InUse() = %d, want 2", got)
	}

	th.Release()
	th.Release()
	if got := th.InUse(); got != 0 {
		t.Errorf("InUse() = %d, want 0", got)
	}
}

func TestConcurrencyNeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	const submitters = 5

	th := New(capacity, 0)
	var active, peak int64
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := th.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer th.Release()

			n := atomic.AddInt64(&active, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&active, -1)
		}()
	}
	wg.Wait()

	if p := atomic.LoadInt64(&peak); p > capacity {
		t.Errorf("peak concurrency = %d, want <= %d", p, capacity)
	}
}

func TestAcquireBusyTimeout(t *testing.T) {
	th := New(1, 20*time.Millisecond)
	if err := th.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	err := th.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected busy timeout, got nil")
	}
	if appErr.GetCode(err) != appErr.PipelineBusy {
		t.Errorf("GetCode() = %v, want PipelineBusy", appErr.GetCode(err))
	}
}

func TestAcquireContextCanceled(t *testing.T) {
	th := New(1, 0)
	if err := th.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := th.Acquire(ctx)
	if err == nil {
		t.Fatal("expected error after cancel, got nil")
	}
	if appErr.GetCode(err) != appErr.Timeout {
		t.Errorf("GetCode() = %v, want Timeout", appErr.GetCode(err))
	}
}

func TestReleaseWithoutAcquireDoesNotGrow(t *testing.T) {
	th := New(1, 0)
	th.Release()
	th.Release()

	if err := th.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := th.InUse(); got != 1 {
		t.Errorf("InUse() = %d, want 1", got)
	}
}
