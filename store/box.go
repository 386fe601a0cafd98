package store

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/accessor"
)

// Box is an in-memory Accessor holding one value. Safe for concurrent use.
type Box[V any] struct {
	mu sync.RWMutex
	v  V
}

var _ accessor.Accessor[int] = (*Box[int])(nil)

func NewBox[V any](initial V) *Box[V] { return &Box[V]{v: initial} }

func (b *Box[V]) Read(context.Context) (V, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.v, nil
}

func (b *Box[V]) Write(_ context.Context, v V) error {
	b.mu.Lock()
	b.v = v
	b.mu.Unlock()
	return nil
}

// Load is Read without a context, for assertions.
func (b *Box[V]) Load() V {
	v, _ := b.Read(context.Background())
	return v
}
