package cache

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// Table is an insertion-ordered hash table keyed by content hash.
//
// Entries are never evicted individually by the table itself; callers
// invalidate wholesale with Reset or remove a specific key with Delete.
type Table[V any] struct {
	index   map[uint64]int
	entries []entry[V]

	hits   uint64
	misses uint64
}

// entry holds a cached value with its key.
type entry[V any] struct {
	key   uint64
	value V
}

// New creates an empty table.
func New[V any]() *Table[V] {
	return &Table[V]{index: make(map[uint64]int)}
}

// Get retrieves a value and counts a hit or miss.
func (t *Table[V]) Get(key uint64) (V, bool) {
	if i, ok := t.index[key]; ok {
		t.hits++
		return t.entries[i].value, true
	}
	t.misses++
	var zero V
	return zero, false
}

// Peek retrieves a value without touching statistics.
func (t *Table[V]) Peek(key uint64) (V, bool) {
	if i, ok := t.index[key]; ok {
		return t.entries[i].value, true
	}
	var zero V
	return zero, false
}

// GetOrCreate returns the cached value for key or stores the result of create.
func (t *Table[V]) GetOrCreate(key uint64, create func() V) V {
	if v, ok := t.Get(key); ok {
		return v
	}
	v := create()
	t.Put(key, v)
	return v
}

// Put stores value under key, replacing any previous value in place.
func (t *Table[V]) Put(key uint64, value V) {
	if i, ok := t.index[key]; ok {
		t.entries[i].value = value
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, entry[V]{key: key, value: value})
}

// Delete removes key and returns its value.
func (t *Table[V]) Delete(key uint64) (V, bool) {
	i, ok := t.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	v := t.entries[i].value
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, key)
	for j := i; j < len(t.entries); j++ {
		t.index[t.entries[j].key] = j
	}
	return v, true
}

// Each calls fn for every entry in insertion order.
func (t *Table[V]) Each(fn func(key uint64, value V)) {
	for _, e := range t.entries {
		fn(e.key, e.value)
	}
}

// Len returns the number of entries.
func (t *Table[V]) Len() int { return len(t.entries) }

// Reset calls destroy (when non-nil) for every entry in insertion order and
// empties the table. Statistics are kept.
func (t *Table[V]) Reset(destroy func(V)) {
	if destroy != nil {
		for _, e := range t.entries {
			destroy(e.value)
		}
	}
	clear(t.index)
	t.entries = t.entries[:0]
}

// Stats returns table statistics.
func (t *Table[V]) Stats() Stats {
	return Stats{Len: len(t.entries), Hits: t.hits, Misses: t.misses}
}

// Stats contains table statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Hasher accumulates an FNV-1a 64-bit hash. The zero value must be Reset
// before use.
type Hasher struct {
	h   hash.Hash64
	buf [8]byte
}

// Reset starts a new hash.
func (h *Hasher) Reset() {
	if h.h == nil {
		h.h = fnv.New64a()
		return
	}
	h.h.Reset()
}

// Uint32 writes v in little-endian order.
func (h *Hasher) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(h.buf[:4], v)
	_, _ = h.h.Write(h.buf[:4])
}

// Uint64 writes v in little-endian order.
func (h *Hasher) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.h.Write(h.buf[:])
}

// String writes the length of s followed by its bytes.
func (h *Hasher) String(s string) {
	h.Uint32(uint32(len(s)))
	_, _ = h.h.Write([]byte(s))
}

// Bool writes 1 or 0.
func (h *Hasher) Bool(v bool) {
	if v {
		h.buf[0] = 1
	} else {
		h.buf[0] = 0
	}
	_, _ = h.h.Write(h.buf[:1])
}

// Sum returns the hash of everything written since Reset.
func (h *Hasher) Sum() uint64 { return h.h.Sum64() }
