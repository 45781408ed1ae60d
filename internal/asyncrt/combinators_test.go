package asyncrt

import (
	"errors"
	"testing"
	"time"
)

type releaseCounter[T any] struct {
	inner    Future[T]
	released int
}

func (p *releaseCounter[T]) Poll(cx *Context) Poll[T] { return p.inner.Poll(cx) }

func (p *releaseCounter[T]) Release() { p.released++ }

func TestAllKeepsArgumentOrder(t *testing.T) {
	rt := New(Config{})
	h := Spawn(rt, All(
		Then[struct{}, int](rt.Delay(30*time.Millisecond), func(struct{}) Future[int] { return Value(1) }),
		Value(2),
		Then[struct{}, int](rt.Delay(10*time.Millisecond), func(struct{}) Future[int] { return Value(3) }),
	))
	rt.Step(0)
	rt.Step(10 * time.Millisecond)
	if h.Done() {
		t.Fatalf("All resolved before its slowest member")
	}
	rt.Step(20 * time.Millisecond)
	got := mustReady(t, h)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("want [1 2 3], got %v", got)
	}
}

func TestAllFailsFastAndReleasesRest(t *testing.T) {
	rt := New(Config{})
	boom := errors.New("boom")
	slow := &releaseCounter[int]{inner: Map[struct{}, int](rt.Delay(time.Hour), func(struct{}) int { return 0 })}
	h := Spawn(rt, All[int](slow, failing[int](boom)))
	rt.Step(0)

	p := h.TryTake()
	if p.Kind != PollFailed || !errors.Is(p.Err, boom) {
		t.Fatalf("want boom, got kind=%v err=%v", p.Kind, p.Err)
	}
	if slow.released != 1 {
		t.Fatalf("pending member released %d times", slow.released)
	}
}

func TestRace2ReleasesLoser(t *testing.T) {
	rt := New(Config{})
	loser := &releaseCounter[struct{}]{inner: rt.Delay(time.Second)}
	h := Spawn(rt, Race2[int, struct{}](Value(5), loser))
	rt.Step(0)

	got := mustReady(t, h)
	if !got.IsLeft || got.Left != 5 {
		t.Fatalf("unexpected winner: %+v", got)
	}
	if loser.released != 1 {
		t.Fatalf("loser released %d times", loser.released)
	}
}

func TestRace2RightWins(t *testing.T) {
	rt := New(Config{})
	h := Spawn(rt, Race2[struct{}, struct{}](rt.Delay(20*time.Millisecond), rt.Delay(5*time.Millisecond)))
	rt.Step(0)
	rt.Step(5 * time.Millisecond)
	if got := mustReady(t, h); got.IsLeft {
		t.Fatalf("shorter right delay should win")
	}
}

func TestThenSkipsContinuationOnFailure(t *testing.T) {
	rt := New(Config{})
	boom := errors.New("boom")
	called := false
	h := Spawn(rt, Then(failing[int](boom), func(int) Future[int] {
		called = true
		return Value(1)
	}))
	rt.Step(0)
	if p := h.TryTake(); !errors.Is(p.Err, boom) || called {
		t.Fatalf("err=%v called=%v", p.Err, called)
	}
}

func TestAwaitReturnsFailure(t *testing.T) {
	rt := New(Config{})
	boom := errors.New("boom")
	h := Spawn(rt, Async(func(co *Coroutine) error {
		_, err := Await(co, failing[string](boom))
		return err
	}))
	rt.Step(0)
	if got := mustReady(t, h); !errors.Is(got, boom) {
		t.Fatalf("want boom, got %v", got)
	}
}

func TestAsyncPanicFailsTask(t *testing.T) {
	rt := New(Config{})
	h := Spawn(rt, Async(func(co *Coroutine) int {
		_ = co.Sleep(rt, time.Millisecond)
		panic("late")
	}))
	rt.Step(0)
	rt.Step(time.Millisecond)

	var pe *PanicError
	if p := h.TryTake(); !errors.As(p.Err, &pe) || pe.Value != "late" {
		t.Fatalf("want PanicError(late), got %v", p.Err)
	}
}

func TestReleaseUnwindsSuspendedCoroutine(t *testing.T) {
	rt := New(Config{})
	var trail []string
	f := Async(func(co *Coroutine) int {
		defer func() { trail = append(trail, "deferred") }()
		_ = co.Sleep(rt, time.Hour)
		trail = append(trail, "resumed")
		return 0
	})
	if p := f.Poll(NewContext(Waker{})); !p.IsPending() {
		t.Fatalf("want pending, got %v", p.Kind)
	}
	release(f)
	if len(trail) != 1 || trail[0] != "deferred" {
		t.Fatalf("want only deferred, got %v", trail)
	}
	// releasing twice is harmless
	release(f)
}

func failing[T any](err error) Future[T] {
	return FutureFunc[T](func(*Context) Poll[T] { return Failed[T](err) })
}
