package offload

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"steprt/internal/asyncrt"
)

// stepUntil drives rt with zero deltas until done reports true.
func stepUntil(t *testing.T, rt *asyncrt.Runtime, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for off-thread wake")
		}
		rt.Step(0)
		time.Sleep(time.Millisecond)
	}
}

func TestSubmitWakesTask(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	pool := NewPool(context.Background(), 2, nil)

	release := make(chan struct{})
	h := asyncrt.Spawn(rt, Submit(pool, func(context.Context) (int, error) {
		<-release
		return 21 * 2, nil
	}))
	rt.Step(0)
	if h.Done() {
		t.Fatalf("job finished before it was released")
	}
	close(release)
	stepUntil(t, rt, h.Done)

	p := h.TryTake()
	if !p.IsReady() || p.Value.Err != nil || p.Value.Value != 42 {
		t.Fatalf("unexpected result: %+v", p)
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if pool.Completed() != 1 {
		t.Fatalf("want 1 completed job, got %d", pool.Completed())
	}
}

func TestSubmitRespectsLimit(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	pool := NewPool(context.Background(), 2, nil)

	var running, peak atomic.Int32
	futures := make([]asyncrt.Future[Result[int]], 6)
	for i := range futures {
		futures[i] = Submit(pool, func(context.Context) (int, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return i, nil
		})
	}
	h := asyncrt.Spawn(rt, asyncrt.All(futures...))
	stepUntil(t, rt, h.Done)

	results := h.TryTake().Value
	for i, r := range results {
		if r.Value != i {
			t.Fatalf("result %d out of order: %+v", i, results)
		}
	}
	if peak.Load() > 2 {
		t.Fatalf("limit exceeded: %d concurrent jobs", peak.Load())
	}
}

func TestJobErrorAndPanic(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	// separate pools: a failure cancels the other jobs of its own pool
	pool := NewPool(context.Background(), 0, nil)
	other := NewPool(context.Background(), 0, nil)
	boom := errors.New("boom")

	failed := asyncrt.Spawn(rt, Submit(pool, func(context.Context) (string, error) { return "", boom }))
	panicked := asyncrt.Spawn(rt, Submit(other, func(context.Context) (string, error) { panic("bad job") }))
	stepUntil(t, rt, func() bool { return failed.Done() && panicked.Done() })

	if r := failed.TryTake().Value; !errors.Is(r.Err, boom) {
		t.Fatalf("want boom, got %v", r.Err)
	}
	if r := panicked.TryTake().Value; r.Err == nil || !strings.Contains(r.Err.Error(), "bad job") {
		t.Fatalf("want panic error, got %v", r.Err)
	}
	if err := pool.Wait(); !errors.Is(err, boom) {
		t.Fatalf("wait must report the job error, got %v", err)
	}
	if err := other.Wait(); err == nil {
		t.Fatalf("wait must report the panic")
	}
}

func TestSleepWakesFromTimer(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	h := asyncrt.Spawn(rt, Sleep(5*time.Millisecond))
	rt.Step(0)
	if h.Done() {
		t.Fatalf("sleep resolved immediately")
	}
	stepUntil(t, rt, h.Done)
	if rt.Now() != 0 {
		t.Fatalf("wall-clock sleep must not need the virtual clock, now=%s", rt.Now())
	}
}

func TestSleepReleaseStopsTimer(t *testing.T) {
	f := Sleep(time.Hour)
	woke := false
	p := f.Poll(asyncrt.NewContext(asyncrt.NewWaker(func() { woke = true })))
	if !p.IsPending() {
		t.Fatalf("want pending")
	}
	r, ok := f.(asyncrt.Releaser)
	if !ok {
		t.Fatalf("sleep future must be releasable")
	}
	r.Release()
	if woke {
		t.Fatalf("released sleep woke its task")
	}
}
