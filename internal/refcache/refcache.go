// Package refcache memoizes reference lookups for the lifetime of one import run.
package refcache

import (
	"context"
	"sync"
)

// Loader resolves key. found is false when the reference does not exist.
type Loader[K comparable, V any] func(ctx context.Context, key K) (value V, found bool, err error)

type entry[V any] struct {
	value V
	found bool
}

// Cache calls its loader at most once per distinct key and remembers both
// hits and misses. Loader errors are returned and not remembered. There is
// no eviction.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	load    Loader[K, V]
	entries map[K]entry[V]
	loads   int
}

// New creates a cache over load.
func New[K comparable, V any](load Loader[K, V]) *Cache[K, V] {
	return &Cache[K, V]{load: load, entries: make(map[K]entry[V])}
}

// Get returns the value for key and whether it exists.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.value, e.found, nil
	}

	c.loads++
	v, found, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	if !found {
		var zero V
		v = zero
	}
	c.entries[key] = entry[V]{value: v, found: found}
	return v, found, nil
}

// Len reports how many keys are memoized, misses included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Loads reports how many times the loader ran.
func (c *Cache[K, V]) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
