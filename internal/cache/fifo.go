// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package cache

import "sync"

// FIFOCache is a thread-safe bounded cache with insertion-order
// eviction: once capacity is reached, the oldest inserted entry is
// dropped. Re-setting an existing key updates the value in place and
// does not refresh its position in the eviction order, so repeated
// identical lookups stay idempotent between data mutations.
type FIFOCache struct {
	mu sync.RWMutex

	capacity int
	items    map[string][]string

	// order holds keys oldest-first. Stale keys (already evicted or
	// overwritten) are skipped during eviction.
	order []string

	hits      int64
	misses    int64
	evictions int64
}

var _ ResultCache = (*FIFOCache)(nil)

// NewFIFO creates a FIFO cache with the given capacity.
func NewFIFO(capacity int) *FIFOCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &FIFOCache{
		capacity: capacity,
		items:    make(map[string][]string, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Get retrieves a ranked list by key.
func (c *FIFOCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, ok := c.items[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return ids, ok
}

// Set stores a ranked list, evicting the oldest entry when the cache
// is full.
func (c *FIFOCache) Set(key string, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		c.items[key] = ids
		return
	}

	for len(c.items) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.items[oldest]; ok {
			delete(c.items, oldest)
			c.evictions++
		}
	}

	c.items[key] = ids
	c.order = append(c.order, key)
}

// Clear removes all entries. Counters are preserved.
func (c *FIFOCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string][]string, c.capacity)
	c.order = c.order[:0]
}

// Len returns the current entry count.
func (c *FIFOCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetStats returns a snapshot of the cache counters.
func (c *FIFOCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.items),
	}
}

// Snapshot returns a copy of the cache contents for persistence.
func (c *FIFOCache) Snapshot() (map[string][]string, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make(map[string][]string, len(c.items))
	for k, v := range c.items {
		ids := make([]string, len(v))
		copy(ids, v)
		items[k] = ids
	}
	order := make([]string, len(c.order))
	copy(order, c.order)
	return items, order
}

// Restore replaces the cache contents from a persisted snapshot,
// trimming oldest entries if the snapshot exceeds capacity.
func (c *FIFOCache) Restore(items map[string][]string, order []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string][]string, c.capacity)
	c.order = c.order[:0]
	for _, key := range order {
		ids, ok := items[key]
		if !ok {
			continue
		}
		if len(c.items) >= c.capacity {
			break
		}
		c.items[key] = ids
		c.order = append(c.order, key)
	}
}
