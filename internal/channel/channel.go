// Package channel is the request/response boundary the rest of the
// application queries the ingestion host through. Each command is a method
// name bound to a handler returning a typed result.
package channel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotImplemented is returned for methods no handler is bound to.
var ErrNotImplemented = errors.New("not implemented")

// MethodCall is one request on a channel.
type MethodCall struct {
	Method string
	Args   map[string]any
}

// Handler answers a call. A nil result is a valid answer.
type Handler func(call MethodCall) (any, error)

// Channel dispatches method calls by name.
type Channel struct {
	name     string
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates a channel with no methods bound.
func New(name string) *Channel {
	return &Channel{name: name, handlers: make(map[string]Handler)}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Handle binds method to h, replacing any previous binding. A nil h
// unbinds the method.
func (c *Channel) Handle(method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h == nil {
		delete(c.handlers, method)
		return
	}
	c.handlers[method] = h
}

// Methods lists the bound method names in sorted order.
func (c *Channel) Methods() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the handler bound to call.Method.
func (c *Channel) Invoke(call MethodCall) (any, error) {
	c.mu.RLock()
	h, ok := c.handlers[call.Method]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", c.name, call.Method, ErrNotImplemented)
	}
	return h(call)
}
