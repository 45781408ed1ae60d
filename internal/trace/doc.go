// Package trace provides the tracing subsystem for the step runtime and its hosts.
//
// The runtime emits a span per Step call and point events for task lifecycle
// changes, which makes it possible to see which frame resumed which task and
// to diagnose tasks that never leave the parked table.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	steprt run delay --trace=- --trace-level=task
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer kept in memory, dumped on demand
//   - MultiTracer: fans out to multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only contract violations and task panics
//   - LevelStep: host frames and step boundaries
//   - LevelTask: task spawn/park/complete events
//   - LevelDebug: everything including individual timer and wake events
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStep, "step", parentID)
//	defer span.End("")
package trace
