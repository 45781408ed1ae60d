// Package host drives an asyncrt.Runtime from a frame loop, the way a
// render loop or animation callback would.
package host

import (
	"context"
	"errors"
	"strconv"
	"time"

	"steprt/internal/asyncrt"
	"steprt/internal/trace"
)

// StopReason explains why Run returned.
type StopReason uint8

const (
	StopNone StopReason = iota
	// StopUntil means the Until predicate reported true.
	StopUntil
	// StopFrames means the frame limit was reached.
	StopFrames
	// StopContext means the context was cancelled.
	StopContext
	// StopClock means the clock ran out of frames.
	StopClock
	// StopClosed means the runtime was closed.
	StopClosed
)

func (r StopReason) String() string {
	switch r {
	case StopUntil:
		return "until"
	case StopFrames:
		return "frames"
	case StopContext:
		return "context"
	case StopClock:
		return "clock"
	case StopClosed:
		return "closed"
	default:
		return "none"
	}
}

// Frame is passed to OnFrame after every step.
type Frame struct {
	Stats asyncrt.StepStats
	Index int
	// Delta is the dt handed to Step, after clamping.
	Delta time.Duration
	// Raw is the delta reported by the clock.
	Raw time.Duration
}

// Loop calls Runtime.Step once per clock tick.
type Loop struct {
	Runtime *asyncrt.Runtime
	Clock   Clock
	Tracer  trace.Tracer
	// Until stops the loop when it returns true. It is checked before the
	// first frame and after every frame.
	Until func() bool
	// OnFrame observes every frame.
	OnFrame func(Frame)
	// Record, when set, receives every clamped delta.
	Record *Recording
	// MaxDelta caps the delta of a single step. Zero disables clamping.
	MaxDelta time.Duration
	// Frames limits the number of steps. Zero means no limit.
	Frames int
}

// Result summarizes a finished run.
type Result struct {
	Frames  int
	Elapsed time.Duration
	Reason  StopReason
}

// Run steps the runtime until a stop condition holds. Cancellation and clock
// exhaustion are reported in Result.Reason, not as errors.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	var res Result
	if l.Runtime == nil || l.Clock == nil {
		return res, errors.New("host: loop needs a runtime and a clock")
	}
	tracer := l.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	span := trace.Begin(tracer, trace.ScopeHost, "host.run", 0)
	defer func() {
		span.WithExtra("frames", strconv.Itoa(res.Frames)).
			WithExtra("reason", res.Reason.String()).
			End(res.Elapsed.String())
	}()

	if l.Until != nil && l.Until() {
		res.Reason = StopUntil
		return res, nil
	}
	for {
		if l.Frames > 0 && res.Frames >= l.Frames {
			res.Reason = StopFrames
			return res, nil
		}
		raw, err := l.Clock.Tick(ctx)
		switch {
		case errors.Is(err, ErrClockExhausted):
			res.Reason = StopClock
			return res, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			res.Reason = StopContext
			return res, nil
		case err != nil:
			return res, err
		}

		dt := ClampDelta(raw, l.MaxDelta)
		if dt != raw {
			trace.Point(tracer, trace.ScopeHost, "host.clamp", "", "raw", raw.String(), "dt", dt.String())
		}
		if l.Record != nil {
			if err := l.Record.Append(dt); err != nil {
				return res, err
			}
		}
		stats := l.Runtime.Step(dt)
		if stats.Skipped {
			res.Reason = StopClosed
			return res, nil
		}
		res.Frames++
		res.Elapsed += dt
		if l.OnFrame != nil {
			l.OnFrame(Frame{Index: res.Frames, Delta: dt, Raw: raw, Stats: stats})
		}
		if l.Until != nil && l.Until() {
			res.Reason = StopUntil
			return res, nil
		}
	}
}
