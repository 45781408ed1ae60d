package asyncrt

// PollKind reports how a resume-check completed.
type PollKind uint8

const (
	// PollPending indicates the future registered the context's waker and is not done.
	PollPending PollKind = iota
	// PollReady indicates the future produced its value.
	PollReady
	// PollFailed indicates the future can never produce a value; see Poll.Err.
	PollFailed
)

// String returns the string representation of PollKind.
func (k PollKind) String() string {
	switch k {
	case PollPending:
		return "pending"
	case PollReady:
		return "ready"
	case PollFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Poll is the outcome of polling a future once.
type Poll[T any] struct {
	Value T
	Err   error
	Kind  PollKind
}

// Ready returns a completed poll carrying v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{Kind: PollReady, Value: v}
}

// Pending returns a not-yet-ready poll.
func Pending[T any]() Poll[T] {
	return Poll[T]{Kind: PollPending}
}

// Failed returns a poll that ended with err.
func Failed[T any](err error) Poll[T] {
	return Poll[T]{Kind: PollFailed, Err: err}
}

// IsPending reports whether the future is still in progress.
func (p Poll[T]) IsPending() bool { return p.Kind == PollPending }

// IsReady reports whether the future produced a value.
func (p Poll[T]) IsReady() bool { return p.Kind == PollReady }

// Future is an asynchronous computation driven by repeated resume-checks.
//
// Poll must either return a terminal result (ready or failed) or arrange for
// cx.Waker() to be invoked once progress is possible, then return Pending.
// Futures are polled only from inside Runtime.Step.
type Future[T any] interface {
	Poll(cx *Context) Poll[T]
}

// FutureFunc adapts a plain function to Future.
type FutureFunc[T any] func(cx *Context) Poll[T]

// Poll calls f(cx).
func (f FutureFunc[T]) Poll(cx *Context) Poll[T] { return f(cx) }

// Releaser is implemented by futures that hold resources (such as a suspended
// coroutine) which must be freed when the future is dropped before completion.
type Releaser interface {
	Release()
}

func release(f any) {
	if r, ok := f.(Releaser); ok {
		r.Release()
	}
}
