package asyncrt

type cellState uint8

const (
	cellEmpty cellState = iota
	cellFull
	cellTaken
)

// outputCell is written at most once by the task and read at most once by
// the handle.
type outputCell[T any] struct {
	value T
	err   error
	state cellState
}

func (c *outputCell[T]) put(v T) {
	if c.state != cellEmpty {
		return
	}
	c.value = v
	c.state = cellFull
}

func (c *outputCell[T]) fail(err error) {
	if c.state != cellEmpty {
		return
	}
	c.err = err
	c.state = cellFull
}

func (c *outputCell[T]) take() Poll[T] {
	var zero T
	v, err := c.value, c.err
	c.value, c.err = zero, nil
	c.state = cellTaken
	if err != nil {
		return Failed[T](err)
	}
	return Ready(v)
}

// JoinHandle resolves to the output of a spawned task. It is itself a Future,
// so tasks running under any Runtime may await it. A handle yields its value
// exactly once.
type JoinHandle[T any] struct {
	cell     *outputCell[T]
	register func(Waker)
	id       TaskID
}

// ID returns the id of the task behind the handle.
func (h *JoinHandle[T]) ID() TaskID {
	return h.id
}

// Done reports whether the task has finished, whether or not the value has
// been taken yet.
func (h *JoinHandle[T]) Done() bool {
	return h.cell.state != cellEmpty
}

// Poll takes the task's output if it is available. Otherwise it installs the
// context's waker in the task's completion slot, replacing any earlier one.
func (h *JoinHandle[T]) Poll(cx *Context) Poll[T] {
	switch h.cell.state {
	case cellFull:
		return h.cell.take()
	case cellTaken:
		return Failed[T](ErrHandleConsumed)
	}
	h.register(cx.Waker())
	return Pending[T]()
}

// TryTake is Poll for host code that is not itself a future: it never
// registers a waker.
func (h *JoinHandle[T]) TryTake() Poll[T] {
	switch h.cell.state {
	case cellFull:
		return h.cell.take()
	case cellTaken:
		return Failed[T](ErrHandleConsumed)
	}
	return Pending[T]()
}
