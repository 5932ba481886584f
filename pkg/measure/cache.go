// Package measure provides the key to measured-size cache used by the list
// engine to recall real item sizes across index remapping.
//
// Entries are kept in first-insertion order so exports are deterministic for
// a given sequence of measurements.
package measure

import "iter"

// Entry is one cached measurement.
type Entry[K comparable] struct {
	Key  K      `json:"key"  yaml:"key"`
	Size uint32 `json:"size" yaml:"size"`
}

// Cache maps item keys to their last measured size.
type Cache[K comparable] struct {
	index   map[K]int
	entries []Entry[K]
}

// New creates an empty cache.
func New[K comparable]() *Cache[K] {
	return &Cache[K]{index: make(map[K]int)}
}

// Len returns the number of cached entries.
func (c *Cache[K]) Len() int {
	return len(c.entries)
}

// Get returns the cached size for key.
func (c *Cache[K]) Get(key K) (uint32, bool) {
	i, ok := c.index[key]
	if !ok {
		return 0, false
	}

	return c.entries[i].Size, true
}

// Set stores size for key, replacing any previous value in place.
func (c *Cache[K]) Set(key K, size uint32) {
	if i, ok := c.index[key]; ok {
		c.entries[i].Size = size

		return
	}

	c.index[key] = len(c.entries)
	c.entries = append(c.entries, Entry[K]{Key: key, Size: size})
}

// Clear removes all entries.
func (c *Cache[K]) Clear() {
	clear(c.index)
	c.entries = c.entries[:0]
}

// All iterates over cached entries without allocating.
func (c *Cache[K]) All() iter.Seq2[K, uint32] {
	return func(yield func(K, uint32) bool) {
		for _, e := range c.entries {
			if !yield(e.Key, e.Size) {
				return
			}
		}
	}
}

// Export returns a copy of all entries.
func (c *Cache[K]) Export() []Entry[K] {
	out := make([]Entry[K], len(c.entries))
	copy(out, c.entries)

	return out
}

// Import replaces the cache contents with entries. Later duplicates win.
// It returns the number of entries consumed.
func (c *Cache[K]) Import(entries []Entry[K]) int {
	c.Clear()

	for _, e := range entries {
		c.Set(e.Key, e.Size)
	}

	return len(entries)
}
