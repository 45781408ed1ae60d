package trace

import (
	"fmt"
	"io"
	"strconv"
	"sync"
)

// StepSpan is the span name the runtime opens around every Step. The ring
// tracer uses it to attribute the events it keeps to runtime steps.
const StepSpan = "step"

type ringEntry struct {
	ev   Event
	step uint64
}

// RingTracer keeps the most recent events in memory, each tagged with the
// runtime step it was recorded in. Events emitted between steps (host or
// heartbeat events) carry the number of the last step seen.
type RingTracer struct {
	entries []ringEntry
	mu      sync.RWMutex
	head    int
	full    bool
	step    uint64
	level   Level
}

// NewRingTracer returns a ring holding up to capacity events. A non-positive
// capacity selects 4096.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{entries: make([]ringEntry, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Kind, ev.Scope) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.Kind == KindSpanBegin && ev.Scope == ScopeStep && ev.Name == StepSpan {
		t.step++
	}
	stored := *ev
	stored.Seq = NextSeq()
	t.entries[t.head] = ringEntry{ev: stored, step: t.step}
	t.head = (t.head + 1) % len(t.entries)
	if t.head == 0 {
		t.full = true
	}
}

// ordered returns the live entries oldest first. The caller holds t.mu.
func (t *RingTracer) ordered() []ringEntry {
	if !t.full {
		return append([]ringEntry(nil), t.entries[:t.head]...)
	}
	out := make([]ringEntry, 0, len(t.entries))
	out = append(out, t.entries[t.head:]...)
	return append(out, t.entries[:t.head]...)
}

// Snapshot returns a copy of the stored events in chronological order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.ordered()
	out := make([]Event, len(entries))
	for i := range entries {
		out[i] = entries[i].ev
	}
	return out
}

// Steps returns how many step spans the ring has seen, including those whose
// events were already overwritten.
func (t *RingTracer) Steps() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.step
}

// Tail returns the stored events recorded during the last n steps, oldest
// first. n <= 0 returns everything.
func (t *RingTracer) Tail(n int) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.ordered()
	var from uint64
	if n > 0 && t.step >= uint64(n) {
		from = t.step - uint64(n) + 1
	}
	out := make([]Event, 0, len(entries))
	for i := range entries {
		if entries[i].step >= from {
			out = append(out, entries[i].ev)
		}
	}
	return out
}

// Dump writes the stored events in the given format. Text output gets a
// "-- step N --" line whenever the step changes; structured formats carry the
// step as a "step" extra.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	t.mu.RLock()
	entries := t.ordered()
	t.mu.RUnlock()

	var (
		last    uint64
		started bool
	)
	for i := range entries {
		e := &entries[i]
		if format == FormatText {
			if !started || e.step != last {
				if _, err := fmt.Fprintf(w, "-- step %d --\n", e.step); err != nil {
					return err
				}
				last, started = e.step, true
			}
		} else {
			extra := make(map[string]string, len(e.ev.Extra)+1)
			for k, v := range e.ev.Extra {
				extra[k] = v
			}
			extra["step"] = strconv.FormatUint(e.step, 10)
			e.ev.Extra = extra
		}
		if _, err := w.Write(FormatEvent(&e.ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
