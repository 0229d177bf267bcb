package leaf

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheLimit bounds a CacheMap built without an explicit limit.
const DefaultCacheLimit = 1000

// Entry is a key/value pair used to seed a CacheMap.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// CacheMap is a bounded map that evicts its least recently used entry once
// the limit is reached.
type CacheMap[K comparable, V any] struct {
	cache *lru.Cache
	limit int
}

// NewCacheMap builds a CacheMap holding at most limit entries, seeded with
// entries in order. A limit below one selects DefaultCacheLimit.
func NewCacheMap[K comparable, V any](limit int, entries ...Entry[K, V]) (*CacheMap[K, V], error) {
	if limit < 1 {
		limit = DefaultCacheLimit
	}
	c, err := lru.New(limit)
	if err != nil {
		return nil, fmt.Errorf("cache map: %w", err)
	}
	m := &CacheMap[K, V]{cache: c, limit: limit}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m, nil
}

// Get returns the value for key and marks it recently used.
func (m *CacheMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Peek returns the value for key without touching its recency.
func (m *CacheMap[K, V]) Peek(key K) (V, bool) {
	v, ok := m.cache.Peek(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Set stores value under key and reports whether an entry was evicted.
func (m *CacheMap[K, V]) Set(key K, value V) bool {
	return m.cache.Add(key, value)
}

// Has reports whether key is present.
func (m *CacheMap[K, V]) Has(key K) bool {
	return m.cache.Contains(key)
}

// Delete removes key and reports whether it was present.
func (m *CacheMap[K, V]) Delete(key K) bool {
	return m.cache.Remove(key)
}

// Keys returns the keys from least to most recently used.
func (m *CacheMap[K, V]) Keys() []K {
	raw := m.cache.Keys()
	out := make([]K, len(raw))
	for i, k := range raw {
		out[i] = k.(K)
	}
	return out
}

// Entries returns the entries from least to most recently used.
func (m *CacheMap[K, V]) Entries() []Entry[K, V] {
	keys := m.Keys()
	out := make([]Entry[K, V], 0, len(keys))
	for _, k := range keys {
		if v, ok := m.Peek(k); ok {
			out = append(out, Entry[K, V]{Key: k, Value: v})
		}
	}
	return out
}

// Len returns the number of entries.
func (m *CacheMap[K, V]) Len() int {
	return m.cache.Len()
}

// Limit returns the maximum number of entries.
func (m *CacheMap[K, V]) Limit() int {
	return m.limit
}

// Clear removes every entry.
func (m *CacheMap[K, V]) Clear() {
	m.cache.Purge()
}
