// Package cell holds the single mutex-guarded optional value that backs every cache.
package cell

import "sync"

// Cell is an optional value guarded by one mutex.
// Every mutation bumps a generation counter so callers can detect interleaved writers.
// The zero value is an empty, ready to use Cell.
type Cell[V any] struct {
	mu  sync.Mutex
	v   V
	ok  bool
	gen uint64
}

func New[V any]() *Cell[V] { return &Cell[V]{} }

// Seeded returns a Cell already holding v.
func Seeded[V any](v V) *Cell[V] {
	return &Cell[V]{v: v, ok: true}
}

// Get returns the current value; ok=false when the cell is empty.
func (c *Cell[V]) Get() (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v, c.ok
}

// Snapshot is Get plus the generation observed together with the value.
func (c *Cell[V]) Snapshot() (V, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v, c.ok, c.gen
}

func (c *Cell[V]) Set(v V) {
	c.mu.Lock()
	c.v, c.ok = v, true
	c.gen++
	c.mu.Unlock()
}

// Clear empties the cell and drops the held value.
func (c *Cell[V]) Clear() {
	var zero V
	c.mu.Lock()
	c.v, c.ok = zero, false
	c.gen++
	c.mu.Unlock()
}

// Mutate applies fn to the content while holding the lock.
// fn must not call back into the same Cell.
func (c *Cell[V]) Mutate(fn func(v V, ok bool) (V, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nv, nok := fn(c.v, c.ok)
	if !nok {
		var zero V
		nv = zero
	}
	c.v, c.ok = nv, nok
	c.gen++
}

// CompareAndSet stores v only if no mutation happened since gen was observed.
func (c *Cell[V]) CompareAndSet(gen uint64, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.v, c.ok = v, true
	c.gen++
	return true
}
