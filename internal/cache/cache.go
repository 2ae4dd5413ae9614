package cache

import (
	"context"
	"sync"
)

// LoaderFunc computes the value for a key on a cache miss. It must be a
// pure function of external state: the cache may invoke it more than once
// for the same key over its lifetime.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

type slot[V any] struct {
	mu     sync.RWMutex
	value  V
	loaded bool
}

// Cache maps keys to lazily computed values. Values are computed by the
// loader on first read and retained until overwritten via [Cache.Set],
// removed via [Cache.Delete], or the cache is dropped.
//
// All methods are safe for concurrent use.
type Cache[K comparable, V any] struct {
	loader LoaderFunc[K, V]

	mu    sync.RWMutex
	slots map[K]*slot[V]
}

// New creates an empty cache backed by loader.
func New[K comparable, V any](loader LoaderFunc[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		loader: loader,
		slots:  make(map[K]*slot[V]),
	}
}

// slotFor returns the slot for key, inserting an empty one if needed.
// Optimistic read lock first; exclusive lock with recheck only on a miss.
func (c *Cache[K, V]) slotFor(key K) *slot[V] {
	c.mu.RLock()
	s, ok := c.slots[key]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[key]; ok {
		return s
	}
	s = &slot[V]{}
	c.slots[key] = s
	return s
}

// Read returns the cached value for key, computing it via the loader on a
// miss. The load runs under the slot's write lock, so concurrent readers
// of a cold key wait for one computation rather than racing.
func (c *Cache[K, V]) Read(ctx context.Context, key K) (V, error) {
	s := c.slotFor(key)

	s.mu.RLock()
	if s.loaded {
		v := s.value
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.value, nil
	}
	v, err := c.loader(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	s.value = v
	s.loaded = true
	return v, nil
}

// Set installs value for key without consulting the loader. Used after a
// write has already persisted the value, avoiding a second store round-trip.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.slotFor(key)
	s.mu.Lock()
	s.value = value
	s.loaded = true
	s.mu.Unlock()
}

// Delete removes the slot for key. A later Read recomputes it.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.slots, key)
	c.mu.Unlock()
}

// DeleteFunc removes every slot whose key matches pred.
func (c *Cache[K, V]) DeleteFunc(pred func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.slots {
		if pred(k) {
			delete(c.slots, k)
		}
	}
}

// ShrinkToFit rebuilds the slot map at its current size, releasing capacity
// left behind by deleted entries. It does not change which keys are cached.
func (c *Cache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	slots := make(map[K]*slot[V], len(c.slots))
	for k, s := range c.slots {
		slots[k] = s
	}
	c.slots = slots
}

// Len returns the number of cached slots, loaded or pending.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slots)
}
