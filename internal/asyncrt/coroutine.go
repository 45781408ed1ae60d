package asyncrt

import (
	"iter"
	"time"
)

// Coroutine is handed to the body of an Async future. It lets the body wait
// on other futures with Await as if they were blocking calls.
//
// The body runs on its own goroutine but strictly in lock-step with the
// goroutine polling it: control passes back and forth through iter.Pull, so
// body code never runs concurrently with Step.
type Coroutine struct {
	cx    *Context
	yield func(struct{}) bool
}

// stopSignal unwinds a body whose coroutine was released while suspended.
type stopSignal struct{}

type asyncFuture[T any] struct {
	body   func(co *Coroutine) T
	co     *Coroutine
	next   func() (struct{}, bool)
	stop   func()
	result T
	done   bool
}

// Async turns a sequential body into a future. Each Await inside the body is
// a suspension point; the future is ready when the body returns.
func Async[T any](body func(co *Coroutine) T) Future[T] {
	return &asyncFuture[T]{body: body}
}

func (f *asyncFuture[T]) Poll(cx *Context) Poll[T] {
	if f.done {
		return Ready(f.result)
	}
	if f.next == nil {
		f.co = &Coroutine{}
		f.next, f.stop = iter.Pull(f.run)
	}
	f.co.cx = cx

	finished := true
	defer func() {
		if finished {
			f.next, f.stop = nil, nil
			f.co.cx = nil
		}
	}()
	if _, ok := f.next(); ok {
		finished = false
		return Pending[T]()
	}
	f.done = true
	return Ready(f.result)
}

func (f *asyncFuture[T]) run(yield func(struct{}) bool) {
	f.co.yield = yield
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stopSignal); ok {
				return
			}
			panic(r)
		}
	}()
	f.result = f.body(f.co)
}

// Release stops a suspended body. Its pending Await unwinds the body's stack,
// running deferred calls, without returning to the body's code.
func (f *asyncFuture[T]) Release() {
	if f.stop == nil {
		return
	}
	stop := f.stop
	f.next, f.stop = nil, nil
	stop()
}

// Await suspends the coroutine until f resolves and returns its value, or
// the error f failed with.
func Await[T any](co *Coroutine, f Future[T]) (T, error) {
	for {
		p := f.Poll(co.cx)
		switch p.Kind {
		case PollReady:
			return p.Value, nil
		case PollFailed:
			var zero T
			return zero, p.Err
		}
		if !co.yield(struct{}{}) {
			release(f)
			panic(stopSignal{})
		}
	}
}

// Sleep awaits rt.Delay(d).
func (co *Coroutine) Sleep(rt *Runtime, d time.Duration) error {
	_, err := Await[struct{}](co, rt.Delay(d))
	return err
}
