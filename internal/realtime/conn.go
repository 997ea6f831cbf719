package realtime

import (
	"encoding/json"
	"sync"
)

// Handler receives the args of one frame. Handlers run on the read loop and
// must not block.
type Handler func(args []json.RawMessage)

// Conn is the subscription surface of one websocket connection. It is
// discarded when the connection drops; subscribers re-attach to the next one.
type Conn struct {
	id uint64

	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
}

func newConn(id uint64) *Conn {
	return &Conn{id: id, handlers: map[string]map[int]Handler{}}
}

// ID is unique per connection within a Client.
func (c *Conn) ID() uint64 { return c.id }

// Subscribe registers h for event and returns its cancel func.
func (c *Conn) Subscribe(event string, h Handler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = map[int]Handler{}
	}
	c.handlers[event][id] = h
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers[event], id)
			if len(c.handlers[event]) == 0 {
				delete(c.handlers, event)
			}
			c.mu.Unlock()
		})
	}
}

// Subscribers reports how many handlers are registered for event.
func (c *Conn) Subscribers(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}

func (c *Conn) dispatch(f Frame) int {
	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers[f.Event]))
	for _, h := range c.handlers[f.Event] {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(f.Args)
	}
	return len(hs)
}
