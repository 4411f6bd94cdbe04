package websocket

import "sync"

// Outbox is a connection's outbound event queue. Any number of goroutines
// may Push; only the connection's flush loop calls Drain.
type Outbox struct {
	mu         sync.Mutex
	events     []Event
	limit      int
	closed     bool
	overflowed bool
}

// newOutbox creates an outbox holding at most limit events; limit <= 0 means
// unbounded.
func newOutbox(limit int) *Outbox {
	return &Outbox{limit: limit}
}

// Push appends ev without blocking. It returns false when the outbox is
// closed or full; a full outbox is marked overflowed and refuses all later
// pushes so its owner can disconnect.
func (o *Outbox) Push(ev Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.overflowed {
		return false
	}
	if o.limit > 0 && len(o.events) >= o.limit {
		o.overflowed = true
		return false
	}
	o.events = append(o.events, ev)
	return true
}

// Drain removes and returns every queued event in FIFO order.
func (o *Outbox) Drain() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.events) == 0 {
		return nil
	}
	out := o.events
	o.events = nil
	return out
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

func (o *Outbox) Overflowed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overflowed
}

// Close discards queued events and rejects further pushes.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.events = nil
}
