package accessor

import (
	"context"

	"github.com/unkn0wn-root/accessor/internal/cell"
)

// AsyncCached is the callback-driven counterpart of Cached. Every method is safe
// for concurrent use and returns without waiting for the backing store.
//
// Ordering:
//   - Set updates the cell before dispatching the backing write, and calls done
//     only after the backing write has completed. A Get issued after Set returns
//     observes the new value even while the write is still in flight.
//   - Backing writes from concurrent Sets may land in any order.
//   - A read-through stores whatever the backing read returned when it completes.
//     A Set or SetCacheOnly made while that read was in flight is overwritten,
//     so the cell can fall back to the store's older value.
//   - Mutate is read-then-set with a possible backing read in between, so two
//     concurrent Mutates race and the last one to set wins at the cell.
//     MutateCAS retries instead and never loses an update.
//
// Completions run on the caller's goroutine for cache hits and on whatever
// goroutine the backing accessor completes on otherwise.
type AsyncCached[V any] struct {
	acc  AsyncAccessor[V]
	cell *cell.Cell[V]

	name  string
	log   Logger
	hooks Hooks
}

// NewAsyncCached wraps acc with an empty cache.
func NewAsyncCached[V any](acc AsyncAccessor[V], opts ...Option) (*AsyncCached[V], error) {
	return newAsyncCached(acc, cell.New[V](), opts)
}

// NewAsyncCachedSeeded wraps acc with a cache that already trusts v.
func NewAsyncCachedSeeded[V any](acc AsyncAccessor[V], v V, opts ...Option) (*AsyncCached[V], error) {
	return newAsyncCached(acc, cell.Seeded(v), opts)
}

func newAsyncCached[V any](acc AsyncAccessor[V], c *cell.Cell[V], opts []Option) (*AsyncCached[V], error) {
	if acc == nil {
		return nil, ErrNilAccessor
	}
	o := buildOptions(opts)
	return &AsyncCached[V]{
		acc:   acc,
		cell:  c,
		name:  o.Name,
		log:   o.Logger,
		hooks: o.Hooks,
	}, nil
}

// Get delivers the cached value to done, reading through on a miss or when reload is true.
// A hit calls done before Get returns.
func (c *AsyncCached[V]) Get(ctx context.Context, reload bool, done func(V, error)) {
	done = nopValue(done)
	if !reload {
		if v, ok := c.cell.Get(); ok {
			done(v, nil)
			return
		}
		c.readThrough(ctx, "miss", done)
		return
	}
	c.readThrough(ctx, "reload", done)
}

// Reload reads the backing store and replaces the cell content.
func (c *AsyncCached[V]) Reload(ctx context.Context, done func(V, error)) {
	c.readThrough(ctx, "reload", nopValue(done))
}

func (c *AsyncCached[V]) readThrough(ctx context.Context, reason string, done func(V, error)) {
	c.hooks.ReadThrough(c.name, reason)
	c.log.Debug("read-through", Fields{"name": c.name, "reason": reason})

	c.acc.Read(ctx, func(v V, err error) {
		if err != nil {
			c.hooks.ReadFailed(c.name, err)
			c.log.Warn("backing read failed", Fields{"name": c.name, "err": err})
			var zero V
			done(zero, err)
			return
		}
		c.cell.Set(v)
		done(v, nil)
	})
}

// Set stores v in the cell, then writes it to the backing store and reports
// the write's error to done. The cell keeps v even if the write fails.
func (c *AsyncCached[V]) Set(ctx context.Context, v V, done func(error)) {
	c.cell.Set(v)
	c.write(ctx, v, nopErr(done))
}

// SetCacheOnly stores v in the cell without touching the backing store.
func (c *AsyncCached[V]) SetCacheOnly(v V) {
	c.cell.Set(v)
	c.log.Debug("cache-only write", Fields{"name": c.name})
}

// Mutate reads the current value (through the cache), applies fn to a copy and Sets it.
//
// Not atomic: concurrent Mutates may both observe the same starting value,
// in which case the last Set wins at the cell and each issues its own backing write.
func (c *AsyncCached[V]) Mutate(ctx context.Context, fn func(*V), done func(error)) {
	done = nopErr(done)
	c.Get(ctx, false, func(v V, err error) {
		if err != nil {
			done(err)
			return
		}
		fn(&v)
		c.Set(ctx, v, done)
	})
}

// MutateCAS is Mutate that commits to the cell only if nothing changed it since
// the value passed to fn was observed; otherwise it retries with the fresh value.
// fn may run more than once and must not have side effects beyond *V.
// Only the committed value is written to the backing store.
func (c *AsyncCached[V]) MutateCAS(ctx context.Context, fn func(*V), done func(error)) {
	c.mutateCAS(ctx, fn, nopErr(done), 1)
}

func (c *AsyncCached[V]) mutateCAS(ctx context.Context, fn func(*V), done func(error), attempt int) {
	for ; ; attempt++ {
		if err := ctx.Err(); err != nil {
			done(err)
			return
		}

		v, ok, gen := c.cell.Snapshot()
		if !ok {
			c.mutateEmpty(ctx, fn, done, gen, attempt)
			return
		}
		fn(&v)
		if c.cell.CompareAndSet(gen, v) {
			c.write(ctx, v, done)
			return
		}
		c.conflict(attempt)
	}
}

// mutateEmpty seeds an empty cell from the backing store and commits against
// the generation seen while it was empty. A lost race restarts mutateCAS from
// the read's completion.
func (c *AsyncCached[V]) mutateEmpty(ctx context.Context, fn func(*V), done func(error), gen uint64, attempt int) {
	c.hooks.ReadThrough(c.name, "miss")
	c.acc.Read(ctx, func(v V, err error) {
		if err != nil {
			c.hooks.ReadFailed(c.name, err)
			c.log.Warn("backing read failed", Fields{"name": c.name, "err": err})
			done(err)
			return
		}
		fn(&v)
		if c.cell.CompareAndSet(gen, v) {
			c.write(ctx, v, done)
			return
		}
		c.conflict(attempt)
		c.mutateCAS(ctx, fn, done, attempt+1)
	})
}

func (c *AsyncCached[V]) conflict(attempt int) {
	c.hooks.MutateConflict(c.name, attempt)
	c.log.Debug("mutate conflict, retrying", Fields{"name": c.name, "attempt": attempt})
}

// Push writes the cached value to the backing store. An empty cache completes with nil.
func (c *AsyncCached[V]) Push(ctx context.Context, done func(error)) {
	done = nopErr(done)
	v, ok := c.cell.Get()
	if !ok {
		c.hooks.PushEmpty(c.name)
		done(nil)
		return
	}
	c.write(ctx, v, done)
}

// Clear forgets the cached value.
func (c *AsyncCached[V]) Clear() { c.cell.Clear() }

// Cached returns the cell content without touching the backing store.
func (c *AsyncCached[V]) Cached() (V, bool) { return c.cell.Get() }

func (c *AsyncCached[V]) write(ctx context.Context, v V, done func(error)) {
	c.acc.Write(ctx, v, func(err error) {
		if err != nil {
			c.hooks.WriteFailed(c.name, err)
			c.log.Warn("backing write failed", Fields{"name": c.name, "err": err, "cache_ahead": true})
		}
		done(err)
	})
}

func nopValue[V any](done func(V, error)) func(V, error) {
	if done == nil {
		return func(V, error) {}
	}
	return done
}

func nopErr(done func(error)) func(error) {
	if done == nil {
		return func(error) {}
	}
	return done
}
