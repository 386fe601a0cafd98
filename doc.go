// Package accessor caches a single value that lives behind a read/write
// capability (an Accessor) so repeated reads do not reach the backing store.
//
// Components:
//   - Accessor[V] / AsyncAccessor[V]: the backing capability (see package store
//     for an in-memory Box and a provider-backed Key).
//   - Cached[V]: blocking read-through/write-back cache.
//   - AsyncCached[V]: the same operations with completion callbacks.
//   - Executor: where Async-adapted accessors run their work (package executor).
//
// Writes:
//
//	c.Set(ctx, v, false) // cell, then backing store
//	c.Set(ctx, v, true)  // cell only; nothing reaches the store
//	c.Push(ctx)          // write the cell's current value to the store
//
// A failed backing write leaves the cell ahead of the store. The error is
// returned and the WriteFailed hook fires; call Push to retry.
//
// Async usage:
//
//	pool := executor.NewPool(4, 256)
//	defer pool.Close()
//
//	c, _ := accessor.NewAsyncCached[Settings](accessor.Async[Settings](key, pool))
//	c.Get(ctx, false, func(s Settings, err error) { ... })
//
// AsyncCached.Mutate is read-modify-write without isolation: two concurrent
// calls may both observe the same value and one update is lost. Use MutateCAS
// when updates must compose.
package accessor
