// Package lru provides a small generic least-recently-used cache, the shape
// every bounded cache in this module is built from: the resolver cache
// (capacity 8192), the inherit memo (8192), IncludeIndex (256) and
// ClassIndex (128). Generified from the teacher's container/list-based
// semantic query cache.
package lru

import "container/list"

// Cache is a fixed-capacity LRU keyed by K holding values of type V. It is
// not safe for concurrent use by itself; callers that need that add their
// own lock (see internal/bbindex, which guards the index rebuild with more
// than a single map operation).
type Cache[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List

	// OnEvict, if set, is invoked with the evicted key/value pair
	// immediately before it is dropped.
	OnEvict func(key K, value V)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New returns a Cache with the given capacity. A non-positive capacity is
// treated as 1 (there is no meaningful "unbounded" mode for these caches per
// spec — every one of them names an explicit bound).
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it most-recently-used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Peek returns the value for key without affecting recency order.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Set inserts or updates key, evicting the least-recently-used entry if the
// cache is over capacity after the insert. Returns true if an eviction
// occurred.
func (c *Cache[K, V]) Set(key K, value V) (evicted bool) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return false
	}
	el := c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = el
	if c.order.Len() <= c.capacity {
		return false
	}
	oldest := c.order.Back()
	if oldest == nil {
		return false
	}
	c.order.Remove(oldest)
	ent := oldest.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.OnEvict != nil {
		c.OnEvict(ent.key, ent.value)
	}
	return true
}

// Remove drops key if present.
func (c *Cache[K, V]) Remove(key K) {
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	return c.order.Len()
}

// Clear empties the cache without invoking OnEvict.
func (c *Cache[K, V]) Clear() {
	c.items = make(map[K]*list.Element, c.capacity)
	c.order = list.New()
}
