// Package tenant provides per-tenant instance caches. A tenant is a bot: every
// shared service that must be isolated between bots is reached through a Cache
// keyed by bot id.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrTenantRequired is returned when an empty tenant id is requested.
var ErrTenantRequired = errors.New("tenant id is required")

// Factory builds the instance for a tenant on first access.
type Factory[T any] func(ctx context.Context, tenantID string) (T, error)

// Cache maps tenant ids to lazily created instances. At most one instance is
// created per tenant for the lifetime of the cache, and instances are never
// evicted. A failed creation is not cached: the next call retries.
type Cache[T any] struct {
	factory Factory[T]
	group   singleflight.Group

	mu    sync.RWMutex
	items map[string]T
}

// New creates a Cache backed by factory.
func New[T any](factory Factory[T]) *Cache[T] {
	return &Cache[T]{
		factory: factory,
		items:   make(map[string]T),
	}
}

// ForTenant returns the instance for tenantID, creating it on first access.
// Concurrent first accesses share a single factory invocation.
func (c *Cache[T]) ForTenant(ctx context.Context, tenantID string) (T, error) {
	var zero T
	id := strings.TrimSpace(tenantID)
	if id == "" {
		return zero, ErrTenantRequired
	}
	if item, ok := c.Peek(id); ok {
		return item, nil
	}
	// The instance outlives the first caller, so its cancellation must not
	// abort creation for the callers waiting on the same flight.
	buildCtx := context.WithoutCancel(ctx)
	value, err, _ := c.group.Do(id, func() (any, error) {
		if item, ok := c.Peek(id); ok {
			return item, nil
		}
		item, err := c.factory(buildCtx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items[id] = item
		c.mu.Unlock()
		return item, nil
	})
	if err != nil {
		return zero, fmt.Errorf("create instance for tenant %s: %w", id, err)
	}
	item, _ := value.(T)
	return item, nil
}

// Peek returns the cached instance for tenantID without creating it.
func (c *Cache[T]) Peek(tenantID string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[strings.TrimSpace(tenantID)]
	return item, ok
}
