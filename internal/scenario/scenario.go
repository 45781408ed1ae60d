// Package scenario holds the named workloads steprt can run against a
// runtime. Each one spawns its tasks up front and returns a Run that the
// host inspects between frames.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"steprt/internal/asyncrt"
	"steprt/internal/offload"
)

// Env is what a scenario may use.
type Env struct {
	Runtime *asyncrt.Runtime
	// Pool is required only by scenarios that offload work.
	Pool *offload.Pool
	// Tasks scales the workload; scenarios treat 0 as 1.
	Tasks int
}

func (e Env) tasks() int {
	if e.Tasks <= 0 {
		return 1
	}
	return e.Tasks
}

// Scenario is a named workload.
type Scenario struct {
	Start       func(env Env) (*Run, error)
	Name        string
	Description string
	NeedsPool   bool
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	registry[s.Name] = s
}

// ErrUnknown is returned by Lookup for names that are not registered.
var ErrUnknown = errors.New("scenario: unknown scenario")

// Lookup returns the scenario called name.
func Lookup(name string) (Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w %q (have: %s)", ErrUnknown, name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// All returns every scenario sorted by name.
func All() []Scenario {
	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted scenario names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

// Run tracks the tasks a scenario spawned.
type Run struct {
	rt       *asyncrt.Runtime
	name     string
	pending  []func() (bool, error)
	errs     []error
	finished []time.Duration
	total    int
}

func newRun(name string, rt *asyncrt.Runtime) *Run {
	return &Run{name: name, rt: rt}
}

// track adds h to r. The outcome is collected by the next refresh after the
// task finishes.
func track[T any](r *Run, h *asyncrt.JoinHandle[T]) {
	r.total++
	r.pending = append(r.pending, func() (bool, error) {
		if !h.Done() {
			return false, nil
		}
		return true, h.TryTake().Err
	})
}

func (r *Run) refresh() {
	kept := r.pending[:0]
	for _, check := range r.pending {
		done, err := check()
		if !done {
			kept = append(kept, check)
			continue
		}
		r.finished = append(r.finished, r.rt.Now())
		if err != nil {
			r.errs = append(r.errs, err)
		}
	}
	clear(r.pending[len(kept):])
	r.pending = kept
}

// Name returns the scenario name.
func (r *Run) Name() string { return r.name }

// Total returns the number of tracked tasks.
func (r *Run) Total() int { return r.total }

// Completed returns how many tracked tasks have finished.
func (r *Run) Completed() int {
	r.refresh()
	return len(r.finished)
}

// Done reports whether every tracked task has finished.
func (r *Run) Done() bool {
	r.refresh()
	return len(r.pending) == 0
}

// Err joins the failures of finished tasks.
func (r *Run) Err() error {
	r.refresh()
	return errors.Join(r.errs...)
}

// Summary describes the run so far in one line.
func (r *Run) Summary() string {
	r.refresh()
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d tasks done", r.name, len(r.finished), r.total)
	if n := len(r.finished); n > 0 {
		fmt.Fprintf(&b, ", first at %s, last at %s", r.finished[0], r.finished[n-1])
	}
	if len(r.errs) > 0 {
		fmt.Fprintf(&b, ", %d failed", len(r.errs))
	}
	return b.String()
}

// Start looks up name and starts it in env.
func Start(name string, env Env) (*Run, error) {
	s, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if env.Runtime == nil {
		return nil, errors.New("scenario: no runtime")
	}
	if s.NeedsPool && env.Pool == nil {
		return nil, fmt.Errorf("scenario %q needs an offload pool", name)
	}
	return s.Start(env)
}
