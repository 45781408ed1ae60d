package asyncrt

import "github.com/google/uuid"

// TaskID identifies a spawned task. IDs are random 128-bit values, unique for
// the lifetime of the process.
type TaskID uuid.UUID

func newTaskID() TaskID {
	return TaskID(uuid.New())
}

// String returns the canonical UUID text form.
func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits, for logs and UIs.
func (id TaskID) Short() string {
	return id.String()[:8]
}

// task is the scheduler-visible unit of work. It lives in exactly one of the
// ready queue, the parked table, or the executing slot of Step.
type task struct {
	fut   Future[struct{}]
	slot  *joinSlot
	abort func(error)
	id    TaskID
}

// joinable wraps f so that its output lands in a cell shared with the
// returned handle.
func joinable[T any](id TaskID, f Future[T]) (*task, *JoinHandle[T]) {
	cell := &outputCell[T]{}
	slot := &joinSlot{}

	t := &task{
		id:   id,
		slot: slot,
		fut: FutureFunc[struct{}](func(cx *Context) Poll[struct{}] {
			p := f.Poll(cx)
			switch p.Kind {
			case PollPending:
				return Pending[struct{}]()
			case PollFailed:
				cell.fail(p.Err)
				return Failed[struct{}](p.Err)
			}
			cell.put(p.Value)
			return Ready(struct{}{})
		}),
		abort: func(err error) {
			// A computation that failed on its own has already settled the
			// cell and holds nothing to release.
			if cell.state == cellEmpty {
				release(f)
				cell.fail(err)
			}
			slot.fire()
		},
	}

	h := &JoinHandle[T]{
		id:       id,
		cell:     cell,
		register: slot.register,
	}
	return t, h
}

// complete notifies a waiting join handle, if any.
func (t *task) complete() {
	t.slot.fire()
}

// fail records err on the handle unless the computation already settled it,
// frees resources held by an unfinished computation, and notifies a waiting
// join handle.
func (t *task) fail(err error) {
	t.abort(err)
}
