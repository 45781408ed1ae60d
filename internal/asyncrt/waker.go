package asyncrt

// Waker is a resumption signal. Calling Wake marks the suspended task that
// handed it out as ready to resume. Wake may be called from any goroutine,
// any number of times; the zero Waker does nothing.
type Waker struct {
	wake func()
}

// NewWaker wraps fn as a Waker. Hosts use it to drive futures outside a Runtime.
func NewWaker(fn func()) Waker {
	return Waker{wake: fn}
}

// Wake signals the owner of the waker.
func (w Waker) Wake() {
	if w.wake != nil {
		w.wake()
	}
}

// IsZero reports whether the waker does nothing when woken.
func (w Waker) IsZero() bool {
	return w.wake == nil
}

// Context is handed to Future.Poll. It carries the waker of the task being
// resumed.
type Context struct {
	waker Waker
}

// NewContext returns a context whose waker is w.
func NewContext(w Waker) *Context {
	return &Context{waker: w}
}

// Waker returns the resumption signal for the current poll.
func (cx *Context) Waker() Waker {
	if cx == nil {
		return Waker{}
	}
	return cx.waker
}

// joinSlot is the completion-notification slot shared between a task and its
// JoinHandle. Last registration wins.
type joinSlot struct {
	waker Waker
	set   bool
}

func (s *joinSlot) register(w Waker) {
	s.waker = w
	s.set = true
}

func (s *joinSlot) fire() {
	if !s.set {
		return
	}
	w := s.waker
	s.waker = Waker{}
	s.set = false
	w.Wake()
}
