// Package memory provides an in-process TTL cache for document summaries.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ResultCache = (*Cache)(nil)

type item struct {
	summary   domain.DocumentSummary
	expiresAt time.Time
}

// Cache is a map with lazy expiry: expired entries are dropped when read
// or when Sweep runs.
type Cache struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]item), now: time.Now}
}

// Put stores the summary for ttl.
func (c *Cache) Put(_ context.Context, summary domain.DocumentSummary, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[summary.ID] = item{summary: summary, expiresAt: c.now().Add(ttl)}
	return nil
}

// Get returns the summary if present and not expired.
func (c *Cache) Get(_ context.Context, id string) (*domain.DocumentSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(it.expiresAt) {
		delete(c.items, id)
		return nil, false, nil
	}
	s := it.summary
	return &s, true, nil
}

// Invalidate removes the entry.
func (c *Cache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for id, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, id)
			removed++
		}
	}
	return removed
}

// Ping always succeeds.
func (c *Cache) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (c *Cache) Close() error {
	return nil
}
