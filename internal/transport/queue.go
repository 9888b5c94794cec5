// internal/transport/queue.go
package transport

import "github.com/Workiva/go-datastructures/queue"

// Queue is a bounded event buffer between transport goroutines (many
// producers) and the poller (single consumer).
// Push blocks while the buffer is full, which is the only backpressure.
type Queue struct {
	rb *queue.RingBuffer
}

// NewQueue returns a queue holding up to size events.
// The ring buffer rounds size up to a power of two.
func NewQueue(size uint64) *Queue {
	return &Queue{rb: queue.NewRingBuffer(size)}
}

// Push enqueues ev. It returns false once the queue is closed.
func (q *Queue) Push(ev Event) bool {
	if err := q.rb.Put(ev); err != nil {
		return false
	}
	return true
}

// Next implements Source. Single consumer only.
func (q *Queue) Next() (Event, bool) {
	if q.rb.IsDisposed() || q.rb.Len() == 0 {
		return Event{}, false
	}
	item, err := q.rb.Get()
	if err != nil {
		// queue.ErrDisposed: closed between Len and Get.
		return Event{}, false
	}
	ev, ok := item.(Event)
	return ev, ok
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return int(q.rb.Len())
}

// Close releases blocked producers. Pending events are discarded.
func (q *Queue) Close() {
	q.rb.Dispose()
}
