package asyncrt

// Value returns a future that is ready with v on its first poll.
func Value[T any](v T) Future[T] {
	return FutureFunc[T](func(*Context) Poll[T] { return Ready(v) })
}

type thenFuture[A, B any] struct {
	first  Future[A]
	next   func(A) Future[B]
	second Future[B]
}

// Then runs f, feeds its value to next, and resolves to the future next
// returns. A failure of f skips next.
func Then[A, B any](f Future[A], next func(A) Future[B]) Future[B] {
	return &thenFuture[A, B]{first: f, next: next}
}

func (f *thenFuture[A, B]) Poll(cx *Context) Poll[B] {
	if f.second == nil {
		p := f.first.Poll(cx)
		switch p.Kind {
		case PollPending:
			return Pending[B]()
		case PollFailed:
			return Failed[B](p.Err)
		}
		f.first = nil
		f.second = f.next(p.Value)
	}
	return f.second.Poll(cx)
}

func (f *thenFuture[A, B]) Release() {
	if f.first != nil {
		release(f.first)
	}
	if f.second != nil {
		release(f.second)
	}
}

type mapFuture[A, B any] struct {
	inner Future[A]
	fn    func(A) B
}

// Map resolves to fn applied to the value of f.
func Map[A, B any](f Future[A], fn func(A) B) Future[B] {
	return &mapFuture[A, B]{inner: f, fn: fn}
}

func (f *mapFuture[A, B]) Poll(cx *Context) Poll[B] {
	p := f.inner.Poll(cx)
	switch p.Kind {
	case PollPending:
		return Pending[B]()
	case PollFailed:
		return Failed[B](p.Err)
	}
	return Ready(f.fn(p.Value))
}

func (f *mapFuture[A, B]) Release() { release(f.inner) }

// Either holds the winner of Race2.
type Either[A, B any] struct {
	Left   A
	Right  B
	IsLeft bool
}

type raceFuture[A, B any] struct {
	left  Future[A]
	right Future[B]
}

// Race2 resolves with whichever of a and b is ready first. On the poll where
// both are ready, a wins. The loser is released and never polled again.
func Race2[A, B any](a Future[A], b Future[B]) Future[Either[A, B]] {
	return &raceFuture[A, B]{left: a, right: b}
}

func (f *raceFuture[A, B]) Poll(cx *Context) Poll[Either[A, B]] {
	if pa := f.left.Poll(cx); pa.Kind != PollPending {
		release(f.right)
		if pa.Kind == PollFailed {
			return Failed[Either[A, B]](pa.Err)
		}
		return Ready(Either[A, B]{Left: pa.Value, IsLeft: true})
	}
	if pb := f.right.Poll(cx); pb.Kind != PollPending {
		release(f.left)
		if pb.Kind == PollFailed {
			return Failed[Either[A, B]](pb.Err)
		}
		return Ready(Either[A, B]{Right: pb.Value})
	}
	return Pending[Either[A, B]]()
}

func (f *raceFuture[A, B]) Release() {
	release(f.left)
	release(f.right)
}

type allFuture[T any] struct {
	futures []Future[T]
	values  []T
	done    []bool
	left    int
}

// All resolves once every future is ready, with the values in argument
// order. The first failure fails the whole group and releases the rest.
func All[T any](fs ...Future[T]) Future[[]T] {
	return &allFuture[T]{
		futures: fs,
		values:  make([]T, len(fs)),
		done:    make([]bool, len(fs)),
		left:    len(fs),
	}
}

func (f *allFuture[T]) Poll(cx *Context) Poll[[]T] {
	for i, fut := range f.futures {
		if f.done[i] {
			continue
		}
		p := fut.Poll(cx)
		switch p.Kind {
		case PollPending:
			continue
		case PollFailed:
			f.done[i] = true
			f.Release()
			return Failed[[]T](p.Err)
		}
		f.values[i] = p.Value
		f.done[i] = true
		f.left--
	}
	if f.left > 0 {
		return Pending[[]T]()
	}
	return Ready(f.values)
}

func (f *allFuture[T]) Release() {
	for i, fut := range f.futures {
		if !f.done[i] {
			release(fut)
		}
	}
}
