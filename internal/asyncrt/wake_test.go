package asyncrt

import (
	"container/heap"
	"sync"
	"testing"
	"time"
)

func TestWakeQueueConcurrentPush(t *testing.T) {
	q := &wakeQueue{}
	ids := make([]TaskID, 8)
	for i := range ids {
		ids[i] = newTaskID()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				q.push(id)
			}
		}()
	}
	wg.Wait()

	counts := make(map[TaskID]int)
	n := q.drain(func(id TaskID) { counts[id]++ })
	if n != len(ids)*100 {
		t.Fatalf("want %d drained, got %d", len(ids)*100, n)
	}
	for _, id := range ids {
		if counts[id] != 100 {
			t.Fatalf("id %s drained %d times", id.Short(), counts[id])
		}
	}
	if q.len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
}

func TestWakeQueuePushDuringDrainWaits(t *testing.T) {
	q := &wakeQueue{}
	a, b := newTaskID(), newTaskID()
	q.push(a)

	var seen []TaskID
	q.drain(func(id TaskID) {
		seen = append(seen, id)
		q.push(b)
	})
	if len(seen) != 1 || seen[0] != a {
		t.Fatalf("first drain saw %v", seen)
	}
	seen = nil
	q.drain(func(id TaskID) { seen = append(seen, id) })
	if len(seen) != 1 || seen[0] != b {
		t.Fatalf("second drain saw %v", seen)
	}
}

func TestWakeQueueClosedDropsPushes(t *testing.T) {
	q := &wakeQueue{}
	q.push(newTaskID())
	q.close()
	q.push(newTaskID())
	if n := q.drain(func(TaskID) {}); n != 0 {
		t.Fatalf("closed queue drained %d ids", n)
	}
}

func TestTimerHeapOrdersByDeadlineThenSeq(t *testing.T) {
	var h timerHeap
	var order []int
	push := func(d time.Duration, seq uint64, tag int) {
		heap.Push(&h, &timeout{deadline: d, seq: seq, waker: NewWaker(func() { order = append(order, tag) })})
	}
	push(30*time.Millisecond, 1, 3)
	push(10*time.Millisecond, 2, 1)
	push(10*time.Millisecond, 3, 2)
	push(20*time.Millisecond, 4, 4)

	for h.Len() > 0 {
		to, _ := heap.Pop(&h).(*timeout)
		to.waker.Wake()
	}
	want := []int{1, 2, 4, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("want %v, got %v", want, order)
		}
	}
}
