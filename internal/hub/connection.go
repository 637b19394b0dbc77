package hub

import (
	"sort"
	"sync"
	"time"

	"order_chat/internal/domain"
)

// Connection is one live client transport. It is owned by the Registry and
// never outlives a disconnect.
type Connection struct {
	ID          string
	Identity    domain.Identity
	ConnectedAt time.Time

	send chan []byte

	mu     sync.Mutex
	groups map[string]struct{}
	closed bool
}

func newConnection(id string, identity domain.Identity, buffer int) *Connection {
	return &Connection{
		ID:          id,
		Identity:    identity,
		ConnectedAt: time.Now().UTC(),
		send:        make(chan []byte, buffer),
		groups:      make(map[string]struct{}),
	}
}

// Outbound is drained by the transport's write loop. It is closed when the
// connection is unregistered.
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

// Groups returns the sorted group names the connection belongs to.
func (c *Connection) Groups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.groups))
	for g := range c.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func (c *Connection) InGroup(group string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.groups[group]
	return ok
}

// enqueue never blocks; false means the frame was dropped.
func (c *Connection) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown marks the connection closed and returns the groups it held.
func (c *Connection) shutdown() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)

	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	c.groups = make(map[string]struct{})
	return groups
}
