package store

import (
	"context"
	"sync"

	"github.com/sells-group/recovery-cli/internal/model"
)

// Cached serves repeated loads from memory. Every Save goes to the wrapped
// store first and then drops the held copy, so the next Load re-reads.
type Cached struct {
	Store

	mu    sync.Mutex
	table *model.Table
}

// NewCached wraps s.
func NewCached(s Store) *Cached {
	return &Cached{Store: s}
}

// Load returns a private clone of the cached table.
func (c *Cached) Load(ctx context.Context) (*model.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table == nil {
		t, err := c.Store.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.table = t
	}
	return c.table.Clone(), nil
}

// Save writes through and invalidates, even when the write fails.
func (c *Cached) Save(ctx context.Context, t *model.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.Store.Save(ctx, t)
	c.table = nil
	return err
}

// Invalidate drops the held copy.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.table = nil
	c.mu.Unlock()
}
