// Package pool provides the slot-indexed store behind rhi resource handles.
package pool

import "fmt"

// Pool is a growable array of T addressed by caller-chosen slot indices.
//
// Slot 0 always exists and is reserved: it stands for "no resource" and is
// never handed out. Growing never moves existing entries' indices and new
// slots start at the zero value of T.
//
// Pool is not safe for concurrent use.
type Pool[T any] struct {
	slots []T
}

// New returns a pool with room for capacity slots (at least slot 0).
func New[T any](capacity int) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool[T]{slots: make([]T, capacity)}
}

// Grow makes slot addressable. Calling Grow for an existing slot is a no-op.
func (p *Pool[T]) Grow(slot uint32) {
	n := int(slot) + 1
	if n <= len(p.slots) {
		return
	}
	if n <= cap(p.slots) {
		p.slots = p.slots[:n]
		return
	}
	newCap := max(n, 2*cap(p.slots))
	grown := make([]T, n, newCap)
	copy(grown, p.slots)
	p.slots = grown
}

// At returns a pointer to the entry in slot. Slots beyond Len are a
// programming error and panic.
func (p *Pool[T]) At(slot uint32) *T {
	if int(slot) >= len(p.slots) {
		panic(fmt.Sprintf("pool: slot %d out of range (len %d)", slot, len(p.slots)))
	}
	return &p.slots[slot]
}

// Has reports whether slot is addressable.
func (p *Pool[T]) Has(slot uint32) bool {
	return int(slot) < len(p.slots)
}

// Len returns the number of addressable slots including slot 0.
func (p *Pool[T]) Len() int { return len(p.slots) }

// Each calls fn for every slot above 0 in ascending order.
func (p *Pool[T]) Each(fn func(slot uint32, v *T)) {
	for i := 1; i < len(p.slots); i++ {
		fn(uint32(i), &p.slots[i])
	}
}
