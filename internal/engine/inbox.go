package engine

import "sync"

// inbox buffers decoded events between the socket goroutine and Run.
//
// Producers Push; the single consumer takes everything buffered at once with
// TakeAll and applies it outside the lock, so a slow surface never blocks the
// socket reader. Order across TakeAll calls is delivery order.
type inbox struct {
	mu     sync.Mutex
	buf    []Event
	spare  []Event
	closed bool
	ready  chan struct{}
}

func newInbox() *inbox {
	return &inbox{
		buf:   make([]Event, 0, 16),
		spare: make([]Event, 0, 16),
		ready: make(chan struct{}, 1),
	}
}

// Push appends ev. Returns false once the inbox is closed.
func (b *inbox) Push(ev Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.buf = append(b.buf, ev)
	select {
	case b.ready <- struct{}{}:
	default:
	}
	return true
}

// TakeAll returns every buffered event and empties the inbox. The returned
// slice is valid until the next TakeAll.
func (b *inbox) TakeAll() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) == 0 {
		return nil
	}
	out := b.buf
	clear(b.spare)
	b.buf, b.spare = b.spare[:0], out
	return out
}

// Ready fires after a Push and is closed by Close.
func (b *inbox) Ready() <-chan struct{} {
	return b.ready
}

func (b *inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Done reports whether the inbox is closed and empty.
func (b *inbox) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed && len(b.buf) == 0
}

// Close rejects further pushes and wakes the consumer. Buffered events can
// still be taken.
func (b *inbox) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.ready)
}
