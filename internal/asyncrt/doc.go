// Package asyncrt implements a cooperative, single-threaded task runtime
// driven by an external loop.
//
// A host (a frame loop, a terminal UI tick, a test) calls Runtime.Step once
// per tick with the elapsed time. Step advances a virtual clock, releases due
// timers, and resumes ready tasks until nothing is left to do; the runtime
// never starts goroutines of its own. Tasks are Futures: values with a Poll
// method that either finish or register the context's Waker and report
// pending. Wakers are the only part of the runtime that may be used from
// other goroutines.
//
//	rt := asyncrt.New(asyncrt.Config{})
//	h := asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) string {
//		_ = co.Sleep(rt, 32*time.Millisecond)
//		return "done"
//	}))
//	for !h.Done() {
//		rt.Step(time.Second / 60)
//	}
package asyncrt
