// Package offload runs blocking work on worker goroutines and exposes the
// outcome as asyncrt futures. Completion is reported to the runtime through
// the task's Waker, from the worker goroutine.
package offload

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"steprt/internal/asyncrt"
	"steprt/internal/trace"
)

// Result is the outcome of a submitted job.
type Result[T any] struct {
	Value T
	Err   error
}

// Pool runs jobs with bounded concurrency. The first job that fails cancels
// the context passed to the others.
type Pool struct {
	ctx    context.Context
	g      *errgroup.Group
	tracer trace.Tracer
	queued sync.WaitGroup
	seq    atomic.Uint64
	done   atomic.Int64
}

// NewPool creates a pool running at most limit jobs at once. A limit <= 0
// means no limit.
func NewPool(ctx context.Context, limit int, tracer trace.Tracer) *Pool {
	if tracer == nil {
		tracer = trace.Nop
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &Pool{ctx: gctx, g: g, tracer: tracer}
}

// Completed reports how many jobs have finished, successfully or not.
func (p *Pool) Completed() int64 {
	return p.done.Load()
}

// Wait blocks until every submitted job has finished and returns the first
// job error.
func (p *Pool) Wait() error {
	p.queued.Wait()
	return p.g.Wait()
}

// shared is the state a worker and a future have in common.
type shared[T any] struct {
	mu     sync.Mutex
	waker  asyncrt.Waker
	result Result[T]
	done   bool
}

func (s *shared[T]) finish(r Result[T]) {
	s.mu.Lock()
	s.result = r
	s.done = true
	w := s.waker
	s.waker = asyncrt.Waker{}
	s.mu.Unlock()
	w.Wake()
}

func (s *shared[T]) Poll(cx *asyncrt.Context) asyncrt.Poll[Result[T]] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return asyncrt.Ready(s.result)
	}
	s.waker = cx.Waker()
	return asyncrt.Pending[Result[T]]()
}

// Submit queues fn on p and returns a future for its result. Submit never
// blocks: when the pool is at its limit the job waits for a free worker in
// the background.
func Submit[T any](p *Pool, fn func(ctx context.Context) (T, error)) asyncrt.Future[Result[T]] {
	s := &shared[T]{}
	id := p.seq.Add(1)
	p.queued.Add(1)
	go func() {
		defer p.queued.Done()
		p.g.Go(func() error {
			start := time.Now()
			v, err := run(p.ctx, fn)
			p.done.Add(1)
			if err != nil {
				trace.Errorf(p.tracer, trace.ScopeHost, "offload.fail", "job %d: %v", id, err)
			} else {
				trace.Point(p.tracer, trace.ScopeHost, "offload.done", time.Since(start).String(), "job", fmt.Sprint(id))
			}
			s.finish(Result[T]{Value: v, Err: err})
			return err
		})
	}()
	return s
}

func run[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("offload: job panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return v, err
	}
	return fn(ctx)
}
