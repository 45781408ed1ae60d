package asyncrt

import "sync"

// wakeQueue is the only part of the runtime touched from other goroutines.
// Any number of producers push task ids; Step is the single consumer.
// It is unbounded: a push never blocks on the consumer.
type wakeQueue struct {
	ids    []TaskID
	spare  []TaskID // consumer-owned buffer reused between drains
	mu     sync.Mutex
	closed bool
}

func (q *wakeQueue) push(id TaskID) {
	q.mu.Lock()
	if !q.closed {
		q.ids = append(q.ids, id)
	}
	q.mu.Unlock()
}

// drain hands every queued id to fn in push order and returns the count.
// Ids pushed while fn runs are left for the next drain.
func (q *wakeQueue) drain(fn func(TaskID)) int {
	q.mu.Lock()
	batch := q.ids
	q.ids = q.spare[:0]
	q.mu.Unlock()

	for _, id := range batch {
		fn(id)
	}
	clear(batch)
	q.spare = batch[:0]
	return len(batch)
}

func (q *wakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

func (q *wakeQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.ids = nil
	q.mu.Unlock()
}
