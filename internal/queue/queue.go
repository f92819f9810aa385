// Package queue implements a bounded thread-safe FIFO used for all
// inter-task data handoff in wearguard.
//
// Each queue owns one mutex and two condition variables (not-empty,
// not-full). Blocking operations wait on a condition variable up to a
// timeout; non-blocking operations never suspend the caller and are the
// only variants safe to invoke from interrupt-style callback contexts.
// The queue never logs: errors are returned synchronously to the caller.
package queue

import (
	"sync"
	"time"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// MaxCapacity bounds the capacity of a single queue instance.
const MaxCapacity = 1024

// Item carries one payload through a Queue together with bookkeeping
// metadata recorded at enqueue time.
type Item struct {
	// Payload is the queued value. The queue does not copy it.
	Payload interface{}

	// Size is the payload size in bytes as reported by the producer.
	Size int

	// Timestamp is when the item was enqueued.
	Timestamp time.Time

	// SequenceID increases strictly monotonically per queue instance,
	// starting at 1. Gaps or inversions on the consumer side indicate
	// loss or reordering.
	SequenceID uint64
}

// Stats is a snapshot of queue counters.
//
// The invariant Enqueued-Dequeued == current length holds after every
// completed enqueue or dequeue. Clear discards items without counting
// them as dequeued.
type Stats struct {
	Enqueued uint64
	Dequeued uint64
	Overruns uint64
}

// Queue is a fixed-capacity FIFO safe for concurrent producers and
// consumers. FIFO order is preserved across all producers and
// consumers of one instance.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items []Item
	head  int
	tail  int
	count int

	nextSeq  uint64
	enqueued uint64
	dequeued uint64
	overruns uint64
}

// New creates a queue with the given fixed capacity.
// The capacity must be positive and no larger than MaxCapacity.
func New(capacity int) (*Queue, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, domain.ErrInvalidArgument
	}
	q := &Queue{
		items:   make([]Item, capacity),
		nextSeq: 1,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// TryEnqueue appends the payload without blocking. If the queue is full
// it increments the overrun counter and returns ErrFull, leaving the
// queue unchanged. Safe to call from callback contexts.
func (q *Queue) TryEnqueue(payload interface{}, size int) error {
	if payload == nil || size < 0 {
		return domain.ErrInvalidArgument
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.items) {
		q.overruns++
		return domain.ErrFull
	}
	q.push(payload, size)
	return nil
}

// Enqueue appends the payload, waiting up to timeout for free space.
// Returns ErrTimedOut if the queue stays full for the whole timeout;
// in that case no state has been modified.
func (q *Queue) Enqueue(payload interface{}, size int, timeout time.Duration) error {
	if payload == nil || size < 0 {
		return domain.ErrInvalidArgument
	}

	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.items) {
		if !time.Now().Before(deadline) {
			return domain.ErrTimedOut
		}
		q.timedWait(q.notFull, deadline)
	}
	q.push(payload, size)
	return nil
}

// TryDequeue removes the oldest item without blocking.
// Returns ErrEmpty if the queue holds no items.
func (q *Queue) TryDequeue() (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Item{}, domain.ErrEmpty
	}
	return q.pop(), nil
}

// Dequeue removes the oldest item, waiting up to timeout for one to
// arrive. Returns ErrTimedOut if the queue stays empty.
func (q *Queue) Dequeue(timeout time.Duration) (Item, error) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 {
		if !time.Now().Before(deadline) {
			return Item{}, domain.ErrTimedOut
		}
		q.timedWait(q.notEmpty, deadline)
	}
	return q.pop(), nil
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.items)
}

// Full reports whether the queue is at capacity.
func (q *Queue) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count == len(q.items)
}

// Empty reports whether the queue holds no items.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Clear discards all queued items. Counters and the sequence id are
// preserved. All waiters are woken so they re-examine the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.head = 0
	q.tail = 0
	q.count = 0
	for i := range q.items {
		q.items[i] = Item{}
	}
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Enqueued: q.enqueued,
		Dequeued: q.dequeued,
		Overruns: q.overruns,
	}
}

// push appends an item. The queue mutex must be held and the queue must
// not be full.
func (q *Queue) push(payload interface{}, size int) {
	q.items[q.tail] = Item{
		Payload:    payload,
		Size:       size,
		Timestamp:  time.Now(),
		SequenceID: q.nextSeq,
	}
	q.nextSeq++
	q.tail = (q.tail + 1) % len(q.items)
	q.count++
	q.enqueued++
	q.notEmpty.Signal()
}

// pop removes the oldest item. The queue mutex must be held and the
// queue must not be empty.
func (q *Queue) pop() Item {
	item := q.items[q.head]
	q.items[q.head] = Item{}
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.dequeued++
	q.notFull.Signal()
	return item
}

// timedWait blocks on c until it is signaled or the deadline passes.
// The queue mutex must be held. A timer broadcast wakes all waiters so
// each can re-check its predicate and its own deadline; callers must
// loop, re-test the condition first and the deadline second.
func (q *Queue) timedWait(c *sync.Cond, deadline time.Time) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return
	}
	timer := time.AfterFunc(remaining, func() {
		q.mu.Lock()
		c.Broadcast()
		q.mu.Unlock()
	})
	c.Wait()
	timer.Stop()
}
