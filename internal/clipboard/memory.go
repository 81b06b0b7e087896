package clipboard

import (
	"context"
	"sync"
)

// MemoryChannel is a process-local single slot used in tests. It models
// the clipboard's last-writer-wins semantics exactly: a write replaces
// whatever is there, read never consumes.
type MemoryChannel struct {
	mu     sync.Mutex
	value  string
	writes int
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

func (c *MemoryChannel) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

func (c *MemoryChannel) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = text
	c.writes++
	return nil
}

// Writes reports how many times the slot has been overwritten.
func (c *MemoryChannel) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}
