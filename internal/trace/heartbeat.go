package trace

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Heartbeat emits a wall-clock event at a fixed interval, independent of the
// host loop. The host reports progress with Observe; a beat that finds the
// step count unchanged since the previous beat is marked stalled, which
// means the host stopped calling Step or a poll never returned.
type Heartbeat struct {
	tracer   Tracer
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	step     atomic.Uint64
	interval time.Duration
}

// StartHeartbeat starts a heartbeat goroutine. It returns nil, which is safe
// to use, when tracing is disabled or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

// Observe records the number of the step the host just completed. Safe from
// any goroutine.
func (h *Heartbeat) Observe(step uint64) {
	if h == nil {
		return
	}
	h.step.Store(step)
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beats, seen uint64
	for {
		select {
		case <-ticker.C:
			beats++
			step := h.step.Load()
			stalled := beats > 1 && step == seen
			seen = step
			h.tracer.Emit(&Event{
				Time:   time.Now(),
				Kind:   KindHeartbeat,
				Scope:  ScopeHost,
				GID:    goroutineID(),
				Name:   "heartbeat",
				Detail: beatDetail(beats, step, stalled),
				Extra: map[string]string{
					"step":    strconv.FormatUint(step, 10),
					"stalled": strconv.FormatBool(stalled),
				},
			})
		case <-h.stopCh:
			return
		}
	}
}

func beatDetail(beat, step uint64, stalled bool) string {
	if stalled {
		return fmt.Sprintf("#%d stalled at step %d", beat, step)
	}
	return fmt.Sprintf("#%d step %d", beat, step)
}

// Stop stops the heartbeat goroutine and waits for it to exit. It may be
// called more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.stopCh) })
	h.wg.Wait()
}
