package asyncrt

import (
	"strconv"
	"time"
	"weak"

	"github.com/eapache/queue"

	"steprt/internal/trace"
)

// Config configures a Runtime.
type Config struct {
	// Tracer receives step spans and task lifecycle events. Nil disables tracing.
	Tracer trace.Tracer
	// Start is the initial value of the virtual clock.
	Start time.Duration
	// PollBudget caps the number of polls per Step. Tasks left over stay in
	// the ready queue, in order, for the next Step. Zero means no cap.
	PollBudget int
}

// runtimeState is the scheduler state shared by the Runtime and the
// futures it hands out. Everything here except wakes is touched only from
// the goroutine calling Step.
type runtimeState struct {
	ready        *queue.Queue
	parked       map[TaskID]*task
	wakes        *wakeQueue
	tracer       trace.Tracer
	timers       timerHeap
	frameWaiters []*timeout
	now          time.Duration
	timerSeq     uint64
	steps        uint64
	budget       int
	stepping     bool
	closed       bool
}

// Runtime is a cooperative single-threaded task scheduler driven by an
// external loop. It never runs anything on its own: all task code executes
// inside Step, on the goroutine that calls it.
type Runtime struct {
	state *runtimeState
}

// New constructs a runtime.
func New(cfg Config) *Runtime {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	budget := cfg.PollBudget
	if budget < 0 {
		budget = 0
	}
	return &Runtime{state: &runtimeState{
		ready:  queue.New(),
		parked: make(map[TaskID]*task),
		wakes:  &wakeQueue{},
		tracer: tracer,
		now:    cfg.Start,
		budget: budget,
	}}
}

// Spawn schedules f on rt and returns a handle to its result. Nothing of f
// runs until the next Step. Spawning on a nil or closed runtime returns a
// handle that fails with ErrRuntimeClosed.
func Spawn[T any](rt *Runtime, f Future[T]) *JoinHandle[T] {
	t, h := joinable(newTaskID(), f)
	if rt == nil || rt.state.closed {
		t.fail(ErrRuntimeClosed)
		return h
	}
	st := rt.state
	st.ready.Add(t)
	trace.Point(st.tracer, trace.ScopeTask, "task.spawn", "", "id", t.id.Short())
	return h
}

// SpawnFunc is Spawn for a plain poll function.
func SpawnFunc[T any](rt *Runtime, fn func(cx *Context) Poll[T]) *JoinHandle[T] {
	return Spawn[T](rt, FutureFunc[T](fn))
}

// Now returns the virtual clock.
func (rt *Runtime) Now() time.Duration {
	if rt == nil {
		return 0
	}
	return rt.state.now
}

// Delay returns a future that resolves once the virtual clock reaches
// Now()+d. The deadline is fixed here, not at the first poll.
func (rt *Runtime) Delay(d time.Duration) *TimerFuture {
	if rt == nil {
		return &TimerFuture{}
	}
	return &TimerFuture{
		state:    weak.Make(rt.state),
		deadline: rt.state.now + d,
	}
}

// NextFrame returns a future that resolves during the next Step call,
// however small its delta.
func (rt *Runtime) NextFrame() Future[struct{}] {
	if rt == nil {
		return &frameFuture{}
	}
	return &frameFuture{
		state: weak.Make(rt.state),
		step:  rt.state.steps,
	}
}

// StepStats describes what a single Step did. Wakes counts every drained
// notification, including stale ones. Parked and ReadyLeft are measured when
// the step returns; ReadyLeft is non-zero only under a poll budget.
type StepStats struct {
	Now         time.Duration
	Step        uint64
	TimersFired int
	FramesWoken int
	Wakes       int
	Polls       int
	Completed   int
	Failed      int
	Parked      int
	ReadyLeft   int
	Skipped     bool
}

// Step advances the virtual clock by dt and runs every task that is, or
// becomes, ready. In order:
//
//  1. advance the clock (negative dt counts as zero);
//  2. wake every timer whose deadline is <= the new time, then NextFrame waiters;
//  3. move woken parked tasks to the back of the ready queue;
//  4. poll ready tasks front to back, re-draining wakes before each poll, until
//     the ready queue and the wake queue are both empty.
//
// Step on a closed runtime, or from inside a poll, does nothing and reports
// Skipped.
func (rt *Runtime) Step(dt time.Duration) StepStats {
	if rt == nil {
		return StepStats{Skipped: true}
	}
	st := rt.state
	if st.closed {
		return StepStats{Now: st.now, Step: st.steps, Skipped: true}
	}
	if st.stepping {
		trace.Errorf(st.tracer, trace.ScopeStep, "step.reentrant", "Step called from inside a poll at %s", st.now)
		return StepStats{Now: st.now, Step: st.steps, Skipped: true}
	}
	st.stepping = true
	defer func() { st.stepping = false }()

	if dt > 0 {
		st.now += dt
	}
	st.steps++
	stats := StepStats{Now: st.now, Step: st.steps}
	span := trace.Begin(st.tracer, trace.ScopeStep, trace.StepSpan, 0)

	stats.TimersFired = st.fireTimers()
	stats.FramesWoken = st.releaseFrameWaiters()

	for !st.closed {
		stats.Wakes += st.wakes.drain(st.unpark)
		if st.budget > 0 && stats.Polls >= st.budget {
			break
		}
		if st.ready.Length() == 0 {
			break
		}
		t, ok := st.ready.Remove().(*task)
		if !ok {
			continue
		}
		stats.Polls++
		p := st.poll(t)
		switch {
		case p.Kind == PollPending && st.closed:
			t.fail(ErrRuntimeClosed)
		case p.Kind == PollPending:
			st.parked[t.id] = t
			trace.Point(st.tracer, trace.ScopeTask, "task.park", "", "id", t.id.Short())
		case p.Kind == PollFailed:
			stats.Failed++
			t.fail(p.Err)
			trace.Errorf(st.tracer, trace.ScopeTask, "task.fail", "%s: %v", t.id.Short(), p.Err)
		default:
			stats.Completed++
			t.complete()
			trace.Point(st.tracer, trace.ScopeTask, "task.complete", "", "id", t.id.Short())
		}
	}

	stats.Parked = len(st.parked)
	stats.ReadyLeft = st.ready.Length()
	span.WithExtra("now", st.now.String()).
		WithExtra("timers", strconv.Itoa(stats.TimersFired)).
		WithExtra("polls", strconv.Itoa(stats.Polls)).
		WithExtra("completed", strconv.Itoa(stats.Completed)).
		WithExtra("parked", strconv.Itoa(stats.Parked)).
		End("")
	return stats
}

// unpark moves a woken task from the parked table to the ready queue. Ids
// that are not parked (already complete, already ready, or unknown) are
// ignored.
func (st *runtimeState) unpark(id TaskID) {
	t, ok := st.parked[id]
	if !ok {
		trace.Point(st.tracer, trace.ScopeWake, "wake.stale", "", "id", id.Short())
		return
	}
	delete(st.parked, id)
	st.ready.Add(t)
	trace.Point(st.tracer, trace.ScopeWake, "wake", "", "id", id.Short())
}

func (st *runtimeState) wakerFor(id TaskID) Waker {
	q := st.wakes
	return Waker{wake: func() { q.push(id) }}
}

// poll resumes t once. A panic in task code fails the task instead of
// unwinding through Step.
func (st *runtimeState) poll(t *task) (p Poll[struct{}]) {
	defer func() {
		if r := recover(); r != nil {
			p = Failed[struct{}](&PanicError{Task: t.id, Value: r})
		}
	}()
	return t.fut.Poll(&Context{waker: st.wakerFor(t.id)})
}

// Wake pushes a wake notification for id, exactly as a waker handed to that
// task would. It is safe to call from any goroutine; an id that is not
// parked is ignored by the next Step.
func (rt *Runtime) Wake(id TaskID) {
	if rt == nil {
		return
	}
	rt.state.wakes.push(id)
}

// Snapshot is a point-in-time view of scheduler occupancy.
type Snapshot struct {
	Now          time.Duration
	NextDeadline time.Duration // valid when HasDeadline
	Steps        uint64
	Ready        int
	Parked       int
	Timers       int
	PendingWakes int
	HasDeadline  bool
	Closed       bool
}

// Snapshot reports queue sizes. Call it from the goroutine that drives Step.
func (rt *Runtime) Snapshot() Snapshot {
	if rt == nil {
		return Snapshot{Closed: true}
	}
	st := rt.state
	next, ok := st.nextDeadline()
	return Snapshot{
		Now:          st.now,
		Steps:        st.steps,
		Ready:        st.ready.Length(),
		Parked:       len(st.parked),
		Timers:       len(st.timers),
		PendingWakes: st.wakes.len(),
		NextDeadline: next,
		HasDeadline:  ok,
		Closed:       st.closed,
	}
}

// Idle reports whether no task is ready or parked.
func (rt *Runtime) Idle() bool {
	if rt == nil {
		return true
	}
	return rt.state.ready.Length() == 0 && len(rt.state.parked) == 0
}

// Close tears the runtime down. Queued and parked tasks are dropped and
// their handles fail with ErrRuntimeClosed; timers and NextFrame futures
// still held elsewhere fail the same way when polled. Wakers handed out
// earlier become no-ops. Close may be called from inside a poll; the
// current Step stops after that poll.
func (rt *Runtime) Close() {
	if rt == nil || rt.state.closed {
		return
	}
	st := rt.state
	st.closed = true
	st.wakes.close()

	dropped := 0
	for st.ready.Length() > 0 {
		if t, ok := st.ready.Remove().(*task); ok {
			t.fail(ErrRuntimeClosed)
			dropped++
		}
	}
	for id, t := range st.parked {
		delete(st.parked, id)
		t.fail(ErrRuntimeClosed)
		dropped++
	}
	st.timers = nil
	st.frameWaiters = nil
	trace.Point(st.tracer, trace.ScopeStep, "runtime.close", "", "dropped", strconv.Itoa(dropped))
}
