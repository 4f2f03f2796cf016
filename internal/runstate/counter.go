package runstate

import "sync"

// Counter is a non-negative run counter. Every read-modify-write happens
// under the counter's own guard, and the value only grows during a run.
type Counter struct {
	mu    sync.Mutex
	value int64
}

// NewCounter constructs a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Increment adds one and returns the new value.
func (c *Counter) Increment() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
