// Package ringbuf implements a thread-safe circular byte buffer for raw
// byte streams, with an optional overwrite-on-full mode.
//
// Like internal/queue, each buffer owns one mutex and two condition
// variables. Non-blocking variants never suspend the caller; errors are
// returned synchronously and never logged here.
package ringbuf

import (
	"sync"
	"time"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// Stats is a snapshot of buffer counters. Writes and Reads count
// operations, not bytes; Overflows counts write bursts that evicted
// old data in overwrite mode.
type Stats struct {
	Writes    uint64
	Reads     uint64
	Overflows uint64
}

// Buffer is a fixed-capacity circular byte buffer.
//
// With overwrite disabled, writes beyond free space are truncated (or
// block, for the timed variant). With overwrite enabled, writes always
// succeed and evict the oldest bytes, so after any burst the buffer
// holds exactly the most recent capacity bytes written.
type Buffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	data  []byte
	head  int
	tail  int
	count int

	overwrite bool

	writes    uint64
	reads     uint64
	overflows uint64
}

// New creates a buffer with the given capacity in bytes.
func New(capacity int, overwriteOnFull bool) (*Buffer, error) {
	if capacity <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	b := &Buffer{
		data:      make([]byte, capacity),
		overwrite: overwriteOnFull,
	}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b, nil
}

// WriteNB writes p without blocking and returns the number of bytes
// accepted.
//
// Overwrite disabled: only the bytes that fit are copied; the remainder
// is dropped. A completely full buffer returns ErrFull with n == 0.
// Overwrite enabled: all of p is accepted, evicting the oldest bytes as
// needed; each evicting burst increments the overflow counter.
func (b *Buffer) WriteNB(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, domain.ErrInvalidArgument
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(p)
}

// Write writes all of p, waiting up to timeout for enough free space.
// With overwrite enabled it never waits. Returns ErrTimedOut, with no
// bytes written, if space does not free up in time.
func (b *Buffer) Write(p []byte, timeout time.Duration) (int, error) {
	if len(p) == 0 {
		return 0, domain.ErrInvalidArgument
	}

	deadline := time.Now().Add(timeout)

	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.overwrite && len(b.data)-b.count < len(p) {
		if !time.Now().Before(deadline) {
			return 0, domain.ErrTimedOut
		}
		b.timedWait(b.notFull, deadline)
	}
	return b.writeLocked(p)
}

// ReadNB reads up to len(p) bytes, oldest first, without blocking.
// Returns ErrEmpty if the buffer holds no data.
func (b *Buffer) ReadNB(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, domain.ErrInvalidArgument
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return 0, domain.ErrEmpty
	}
	return b.readLocked(p), nil
}

// Read reads up to len(p) bytes, waiting up to timeout for data to
// arrive. Returns ErrTimedOut if the buffer stays empty.
func (b *Buffer) Read(p []byte, timeout time.Duration) (int, error) {
	if len(p) == 0 {
		return 0, domain.ErrInvalidArgument
	}

	deadline := time.Now().Add(timeout)

	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 {
		if !time.Now().Before(deadline) {
			return 0, domain.ErrTimedOut
		}
		b.timedWait(b.notEmpty, deadline)
	}
	return b.readLocked(p), nil
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Free returns the number of free bytes.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data) - b.count
}

// Cap returns the fixed capacity in bytes.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Clear discards all buffered bytes. Counters are preserved. All
// waiters are woken so they re-examine the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = 0
	b.tail = 0
	b.count = 0
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
}

// Stats returns a snapshot of the buffer counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Writes:    b.writes,
		Reads:     b.reads,
		Overflows: b.overflows,
	}
}

// writeLocked performs the copy. The buffer mutex must be held.
func (b *Buffer) writeLocked(p []byte) (int, error) {
	n := len(p)
	free := len(b.data) - b.count

	if n > free {
		if b.overwrite {
			b.overflows++
		} else {
			n = free
			if n == 0 {
				return 0, domain.ErrFull
			}
			p = p[:n]
		}
	}

	// A burst larger than the whole buffer reduces to its last
	// capacity bytes; everything earlier would be evicted anyway.
	src := p
	if len(src) > len(b.data) {
		src = src[len(src)-len(b.data):]
	}

	// Evict the oldest bytes to make room (overwrite mode only).
	if need := len(src) - (len(b.data) - b.count); need > 0 {
		b.head = (b.head + need) % len(b.data)
		b.count -= need
	}

	// Copy in at most two segments around the array boundary.
	first := len(b.data) - b.tail
	if first > len(src) {
		first = len(src)
	}
	copy(b.data[b.tail:], src[:first])
	copy(b.data, src[first:])
	b.tail = (b.tail + len(src)) % len(b.data)
	b.count += len(src)

	b.writes++
	b.notEmpty.Signal()
	return n, nil
}

// readLocked copies out up to len(p) bytes, oldest first. The buffer
// mutex must be held and the buffer must not be empty.
func (b *Buffer) readLocked(p []byte) int {
	n := len(p)
	if n > b.count {
		n = b.count
	}

	first := len(b.data) - b.head
	if first > n {
		first = n
	}
	copy(p[:first], b.data[b.head:b.head+first])
	copy(p[first:n], b.data)
	b.head = (b.head + n) % len(b.data)
	b.count -= n

	b.reads++
	b.notFull.Signal()
	return n
}

// timedWait blocks on c until it is signaled or the deadline passes.
// The buffer mutex must be held; callers must loop and re-check their
// predicate before the deadline.
func (b *Buffer) timedWait(c *sync.Cond, deadline time.Time) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return
	}
	timer := time.AfterFunc(remaining, func() {
		b.mu.Lock()
		c.Broadcast()
		b.mu.Unlock()
	})
	c.Wait()
	timer.Stop()
}
