package relay

import (
	"sync"
	"sync/atomic"
)

// Conn is the relay side of one live transport connection. The transport
// drains Events and writes each event to the client in order.
type Conn struct {
	id string

	// mu serializes this connection's operations. Lock order is always
	// Conn.mu before any room lock.
	mu       sync.Mutex
	roomID   string // current room, "" when unjoined
	username string // username given at join time
	gone     bool   // set once by Disconnect

	outMu   sync.Mutex
	out     chan Event
	closed  bool
	dropped atomic.Int64
}

func newConn(id string, size int) *Conn {
	return &Conn{
		id:  id,
		out: make(chan Event, size),
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// Events returns the outbound event stream. It is closed on Disconnect.
func (c *Conn) Events() <-chan Event {
	return c.out
}

// Dropped returns how many events were discarded because the outbox was full.
func (c *Conn) Dropped() int64 {
	return c.dropped.Load()
}

// Push queues an event for this connection only. It never blocks; it
// reports false when the event was dropped because the outbox is full or
// the connection is closed.
func (c *Conn) Push(ev Event) bool {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.out <- ev:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

func (c *Conn) close() {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}
