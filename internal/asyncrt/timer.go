package asyncrt

import (
	"container/heap"
	"time"
	"weak"
)

// timeout is a pending wakeup registered by a TimerFuture.
type timeout struct {
	waker    Waker
	deadline time.Duration
	seq      uint64
	fired    bool
}

// timerHeap is a min-heap ordered by deadline, then registration order.
type timerHeap []*timeout

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline == h[j].deadline {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline < h[j].deadline
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	to, ok := x.(*timeout)
	if !ok {
		return
	}
	*h = append(*h, to)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	if n == 0 {
		return nil
	}
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (st *runtimeState) addTimer(deadline time.Duration, w Waker) *timeout {
	st.timerSeq++
	to := &timeout{deadline: deadline, seq: st.timerSeq, waker: w}
	heap.Push(&st.timers, to)
	return to
}

// fireTimers wakes every timer whose deadline is at or before now and
// returns how many fired. The first future deadline stays in place.
func (st *runtimeState) fireTimers() int {
	fired := 0
	for len(st.timers) > 0 && st.timers[0].deadline <= st.now {
		to, ok := heap.Pop(&st.timers).(*timeout)
		if !ok {
			continue
		}
		to.fired = true
		fired++
		to.waker.Wake()
	}
	return fired
}

// nextDeadline reports the earliest pending deadline.
func (st *runtimeState) nextDeadline() (time.Duration, bool) {
	if len(st.timers) == 0 {
		return 0, false
	}
	return st.timers[0].deadline, true
}

// TimerFuture resolves once the runtime's virtual clock reaches its deadline.
// Deadlines are inclusive: a timer is due when deadline <= now, both when
// polled and when released by Step.
type TimerFuture struct {
	state    weak.Pointer[runtimeState]
	entry    *timeout
	deadline time.Duration
}

// Deadline returns the virtual instant at which the timer is due.
func (f *TimerFuture) Deadline() time.Duration {
	return f.deadline
}

// Poll reports ready once the deadline has passed. Otherwise it registers a
// timeout carrying the context's waker; while that timeout is still in the
// heap, later polls only replace its waker. A timer whose runtime was closed
// or collected fails with ErrRuntimeClosed.
func (f *TimerFuture) Poll(cx *Context) Poll[struct{}] {
	st := f.state.Value()
	if st == nil || st.closed {
		return Failed[struct{}](ErrRuntimeClosed)
	}
	if f.deadline <= st.now {
		return Ready(struct{}{})
	}
	if f.entry != nil && !f.entry.fired {
		f.entry.waker = cx.Waker()
		return Pending[struct{}]()
	}
	f.entry = st.addTimer(f.deadline, cx.Waker())
	return Pending[struct{}]()
}

// frameFuture resolves on the first Step after the one it was created in.
type frameFuture struct {
	state  weak.Pointer[runtimeState]
	waiter *timeout
	step   uint64
}

func (f *frameFuture) Poll(cx *Context) Poll[struct{}] {
	st := f.state.Value()
	if st == nil || st.closed {
		return Failed[struct{}](ErrRuntimeClosed)
	}
	if st.steps > f.step {
		return Ready(struct{}{})
	}
	if f.waiter != nil && !f.waiter.fired {
		f.waiter.waker = cx.Waker()
		return Pending[struct{}]()
	}
	f.waiter = &timeout{waker: cx.Waker()}
	st.frameWaiters = append(st.frameWaiters, f.waiter)
	return Pending[struct{}]()
}

func (st *runtimeState) releaseFrameWaiters() int {
	n := len(st.frameWaiters)
	waiters := st.frameWaiters
	st.frameWaiters = nil
	for _, w := range waiters {
		w.fired = true
		w.waker.Wake()
	}
	return n
}
