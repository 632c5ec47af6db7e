package writer

import "sync"

// Counter hands out file indices. Every Claim returns the next index, so a
// run that claims n times sees exactly 0..n-1, each once.
type Counter struct {
	mu   sync.Mutex
	next int
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Claim() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.next
	c.next++
	return i
}

// Claimed reports how many indices were handed out so far.
func (c *Counter) Claimed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
