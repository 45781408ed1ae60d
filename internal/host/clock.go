package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fortio.org/safecast"
)

// ErrClockExhausted is returned by a clock that has no more frames to give,
// such as a ReplayClock at the end of its recording.
var ErrClockExhausted = errors.New("host: clock exhausted")

// Clock paces the host loop. Tick waits until the next frame is due and
// returns the time elapsed since the previous tick.
type Clock interface {
	Tick(ctx context.Context) (time.Duration, error)
}

// FrameInterval returns the frame period for fps frames per second.
func FrameInterval(fps int) (time.Duration, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("host: fps must be positive, got %d", fps)
	}
	n, err := safecast.Conv[int64](fps)
	if err != nil {
		return 0, fmt.Errorf("host: fps %d: %w", fps, err)
	}
	return time.Second / time.Duration(n), nil
}

// VirtualClock returns the same delta every tick. With Pace set it also
// waits that long of wall-clock time per tick, which gives off-thread work a
// chance to finish while the virtual clock stays deterministic.
type VirtualClock struct {
	Delta time.Duration
	Pace  time.Duration
}

func (c *VirtualClock) Tick(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c == nil {
		return 0, nil
	}
	if c.Pace > 0 {
		timer := time.NewTimer(c.Pace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
	return c.Delta, nil
}

// RealClock sleeps until the next frame boundary and reports the wall-clock
// time that actually passed, which may exceed Interval when frames run long.
type RealClock struct {
	// NowFunc defaults to time.Now.
	NowFunc  func() time.Time
	Interval time.Duration

	prev time.Time
	next time.Time
}

func (c *RealClock) now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc()
	}
	return time.Now()
}

func (c *RealClock) Tick(ctx context.Context) (time.Duration, error) {
	if c == nil {
		return 0, nil
	}
	now := c.now()
	if c.prev.IsZero() {
		c.prev = now
		c.next = now.Add(c.Interval)
		return 0, ctx.Err()
	}
	if wait := c.next.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
		now = c.now()
	}
	dt := now.Sub(c.prev)
	c.prev = now
	c.next = c.next.Add(c.Interval)
	// after a long stall, skip missed boundaries rather than bursting
	if c.next.Before(now) {
		c.next = now.Add(c.Interval)
	}
	return dt, nil
}

// ReplayClock replays deltas captured in a Recording, one per tick.
type ReplayClock struct {
	deltas []time.Duration
	pos    int
}

// NewReplayClock replays rec from its first frame.
func NewReplayClock(rec *Recording) *ReplayClock {
	return &ReplayClock{deltas: rec.Deltas()}
}

func (c *ReplayClock) Tick(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.pos >= len(c.deltas) {
		return 0, ErrClockExhausted
	}
	dt := c.deltas[c.pos]
	c.pos++
	return dt, nil
}

// Remaining reports how many recorded frames are left.
func (c *ReplayClock) Remaining() int {
	return len(c.deltas) - c.pos
}

// ClampDelta bounds a frame delta to [0, maxDelta]. A zero maxDelta only
// drops negative deltas.
func ClampDelta(dt, maxDelta time.Duration) time.Duration {
	if dt < 0 {
		return 0
	}
	if maxDelta > 0 && dt > maxDelta {
		return maxDelta
	}
	return dt
}
