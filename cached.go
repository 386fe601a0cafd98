package accessor

import (
	"context"

	"github.com/unkn0wn-root/accessor/internal/cell"
)

// Cached is a read-through, write-back cache over a blocking Accessor.
//
// The cell is always updated before the backing write is attempted and is never
// rolled back, so after a failed Write the cache is ahead of the store. Callers
// that need the store to catch up call Push and check its error.
//
// The cell itself is safe for concurrent use, but compound operations (Get on a
// miss, Mutate) are not atomic across the backing call. Use AsyncCached when
// several goroutines share one value.
type Cached[V any] struct {
	acc  Accessor[V]
	cell *cell.Cell[V]

	name  string
	log   Logger
	hooks Hooks
}

// NewCached wraps acc with an empty cache.
func NewCached[V any](acc Accessor[V], opts ...Option) (*Cached[V], error) {
	return newCached(acc, cell.New[V](), opts)
}

// NewCachedSeeded wraps acc with a cache that already trusts v.
// The first Get returns v without touching acc.
func NewCachedSeeded[V any](acc Accessor[V], v V, opts ...Option) (*Cached[V], error) {
	return newCached(acc, cell.Seeded(v), opts)
}

func newCached[V any](acc Accessor[V], c *cell.Cell[V], opts []Option) (*Cached[V], error) {
	if acc == nil {
		return nil, ErrNilAccessor
	}
	o := buildOptions(opts)
	return &Cached[V]{
		acc:   acc,
		cell:  c,
		name:  o.Name,
		log:   o.Logger,
		hooks: o.Hooks,
	}, nil
}

// Get returns the cached value, reading through to the backing store on a miss
// or when reload is true.
func (c *Cached[V]) Get(ctx context.Context, reload bool) (V, error) {
	if !reload {
		if v, ok := c.cell.Get(); ok {
			return v, nil
		}
		return c.readThrough(ctx, "miss")
	}
	return c.readThrough(ctx, "reload")
}

// Value is Get without reload.
func (c *Cached[V]) Value(ctx context.Context) (V, error) { return c.Get(ctx, false) }

// Reload reads the backing store and replaces whatever the cell held,
// including values written with cacheOnly.
func (c *Cached[V]) Reload(ctx context.Context) (V, error) {
	return c.readThrough(ctx, "reload")
}

func (c *Cached[V]) readThrough(ctx context.Context, reason string) (V, error) {
	c.hooks.ReadThrough(c.name, reason)
	c.log.Debug("read-through", Fields{"name": c.name, "reason": reason})

	v, err := c.acc.Read(ctx)
	if err != nil {
		c.hooks.ReadFailed(c.name, err)
		c.log.Warn("backing read failed", Fields{"name": c.name, "err": err})
		var zero V
		return zero, err
	}
	c.cell.Set(v)
	return v, nil
}

// Set stores v in the cache and, unless cacheOnly, writes it to the backing store.
// The backing error is returned as is; the cell keeps v either way.
// With cacheOnly the store stays stale until Push.
func (c *Cached[V]) Set(ctx context.Context, v V, cacheOnly bool) error {
	c.cell.Set(v)
	if cacheOnly {
		c.log.Debug("cache-only write", Fields{"name": c.name})
		return nil
	}
	return c.write(ctx, v)
}

// TrySet is Set that reports success as a bool for callers that drop the error.
func (c *Cached[V]) TrySet(ctx context.Context, v V, cacheOnly bool) bool {
	return c.Set(ctx, v, cacheOnly) == nil
}

// Mutate reads the current value (through the cache), applies fn to a copy and Sets it.
// fn receives a shallow copy; mutating shared references inside V is visible to others.
func (c *Cached[V]) Mutate(ctx context.Context, fn func(*V)) error {
	v, err := c.Get(ctx, false)
	if err != nil {
		return err
	}
	fn(&v)
	return c.Set(ctx, v, false)
}

// Push writes the cached value to the backing store. An empty cache is a no-op.
// Consecutive Pushes write the same value again; there is no dedup.
func (c *Cached[V]) Push(ctx context.Context) error {
	v, ok := c.cell.Get()
	if !ok {
		c.hooks.PushEmpty(c.name)
		return nil
	}
	return c.write(ctx, v)
}

// TryPush is Push that reports success as a bool.
func (c *Cached[V]) TryPush(ctx context.Context) bool { return c.Push(ctx) == nil }

// Clear forgets the cached value; the next Get reads the backing store.
func (c *Cached[V]) Clear() { c.cell.Clear() }

// Cached returns the cell content without touching the backing store.
func (c *Cached[V]) Cached() (V, bool) { return c.cell.Get() }

func (c *Cached[V]) write(ctx context.Context, v V) error {
	if err := c.acc.Write(ctx, v); err != nil {
		c.hooks.WriteFailed(c.name, err)
		c.log.Warn("backing write failed", Fields{"name": c.name, "err": err, "cache_ahead": true})
		return err
	}
	return nil
}
