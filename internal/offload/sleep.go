package offload

import (
	"sync"
	"time"

	"steprt/internal/asyncrt"
)

type sleepFuture struct {
	mu    sync.Mutex
	timer *time.Timer
	waker asyncrt.Waker
	d     time.Duration
	fired bool
}

// Sleep returns a future that resolves after d of wall-clock time, measured
// from its first poll. Unlike asyncrt's Delay it ignores the virtual clock;
// the wake arrives from the timer goroutine.
func Sleep(d time.Duration) asyncrt.Future[struct{}] {
	return &sleepFuture{d: d}
}

func (f *sleepFuture) Poll(cx *asyncrt.Context) asyncrt.Poll[struct{}] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fired || f.d <= 0 {
		return asyncrt.Ready(struct{}{})
	}
	f.waker = cx.Waker()
	if f.timer == nil {
		f.timer = time.AfterFunc(f.d, f.fire)
	}
	return asyncrt.Pending[struct{}]()
}

func (f *sleepFuture) fire() {
	f.mu.Lock()
	f.fired = true
	w := f.waker
	f.mu.Unlock()
	w.Wake()
}

// Release stops the timer if it has not fired.
func (f *sleepFuture) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
}
