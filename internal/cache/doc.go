// Package cache provides the content-hash tables behind rhi's program and
// framebuffer caches.
//
// # Table[V]
//
// Table maps a 64-bit content hash to a value and remembers insertion order
// so that entries can be walked and destroyed deterministically. It tracks
// hit and miss counts in the get-or-create style used for pipeline caching.
//
//	t := cache.New[uint32]()
//	fbo := t.GetOrCreate(key, func() uint32 { return dev.GenFramebuffer() })
//
// # Hasher
//
// Hasher is an FNV-1a accumulator with fixed-width writers for the scalar
// fields that make up a cache key.
//
//	var h cache.Hasher
//	h.Reset()
//	h.Uint32(depth)
//	h.Uint32(uint32(len(colors)))
//	key := h.Sum()
//
// # Thread Safety
//
// Neither type is safe for concurrent use. The backend context owns its
// tables and replays commands on a single goroutine.
package cache
