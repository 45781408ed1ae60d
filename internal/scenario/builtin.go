package scenario

import (
	"context"
	"fmt"
	"time"

	"steprt/internal/asyncrt"
	"steprt/internal/offload"
)

func init() {
	register(Scenario{
		Name:        "delay",
		Description: "tasks sleep on staggered virtual-time delays",
		Start:       startDelay,
	})
	register(Scenario{
		Name:        "race",
		Description: "two 16ms delays, then a race between 16ms and 32ms",
		Start:       startRace,
	})
	register(Scenario{
		Name:        "nested",
		Description: "tasks spawn and join children inside a single step",
		Start:       startNested,
	})
	register(Scenario{
		Name:        "fanout",
		Description: "a parent waits on children that each yield for several frames",
		Start:       startFanout,
	})
	register(Scenario{
		Name:        "offload",
		Description: "blocking jobs on worker goroutines wake tasks from off-thread",
		Start:       startOffload,
		NeedsPool:   true,
	})
}

func startDelay(env Env) (*Run, error) {
	rt := env.Runtime
	run := newRun("delay", rt)
	for i := range env.tasks() {
		d := time.Duration(i+1) * 16 * time.Millisecond
		track(run, asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) struct{} {
			if err := co.Sleep(rt, d); err != nil {
				panic(err)
			}
			return struct{}{}
		})))
	}
	return run, nil
}

func startRace(env Env) (*Run, error) {
	rt := env.Runtime
	run := newRun("race", rt)
	for range env.tasks() {
		track(run, asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) bool {
			_ = co.Sleep(rt, 16*time.Millisecond)
			_ = co.Sleep(rt, 16*time.Millisecond)
			w, err := asyncrt.Await(co, asyncrt.Race2[struct{}, struct{}](
				rt.Delay(16*time.Millisecond),
				rt.Delay(32*time.Millisecond),
			))
			if err != nil {
				panic(err)
			}
			return w.IsLeft
		})))
	}
	return run, nil
}

func startNested(env Env) (*Run, error) {
	rt := env.Runtime
	run := newRun("nested", rt)
	for i := range env.tasks() {
		track(run, asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) int {
			child := asyncrt.Spawn(rt, asyncrt.Map(asyncrt.Value(i), func(v int) int { return v * v }))
			sq, err := asyncrt.Await[int](co, child)
			if err != nil {
				panic(err)
			}
			sum, _ := asyncrt.Await(co, asyncrt.Then(asyncrt.Value(sq), func(v int) asyncrt.Future[int] {
				return asyncrt.Value(v + i)
			}))
			if sum != i*i+i {
				panic(fmt.Sprintf("nested: got %d, want %d", sum, i*i+i))
			}
			return sum
		})))
	}
	return run, nil
}

func startFanout(env Env) (*Run, error) {
	rt := env.Runtime
	run := newRun("fanout", rt)
	n := env.tasks()
	track(run, asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) int {
		children := make([]asyncrt.Future[int], n)
		for i := range n {
			children[i] = asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) int {
				for range i + 1 {
					if _, err := asyncrt.Await(co, rt.NextFrame()); err != nil {
						panic(err)
					}
				}
				return i + 1
			}))
		}
		frames, err := asyncrt.Await(co, asyncrt.All(children...))
		if err != nil {
			panic(err)
		}
		total := 0
		for _, f := range frames {
			total += f
		}
		return total
	})))
	return run, nil
}

func startOffload(env Env) (*Run, error) {
	rt := env.Runtime
	run := newRun("offload", rt)
	for i := range env.tasks() {
		job := offload.Submit(env.Pool, func(ctx context.Context) (int, error) {
			t := time.NewTimer(time.Duration(i+1) * time.Millisecond)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-t.C:
			}
			return i, nil
		})
		track(run, asyncrt.Spawn(rt, asyncrt.Async(func(co *asyncrt.Coroutine) int {
			res, err := asyncrt.Await(co, job)
			if err != nil {
				panic(err)
			}
			if res.Err != nil {
				panic(res.Err)
			}
			// hand the result back on a frame boundary
			_ = co.Sleep(rt, 16*time.Millisecond)
			return res.Value
		})))
	}
	return run, nil
}
