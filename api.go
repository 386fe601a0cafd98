package accessor

import "context"

// Accessor is a read/write capability over one value held somewhere else
// (a key in Redis, a local box, a remote document, ...).
// The caches never look past these two methods.
type Accessor[V any] interface {
	Read(ctx context.Context) (V, error)
	Write(ctx context.Context, v V) error
}

// AsyncAccessor is Accessor with completion callbacks instead of return values.
// Implementations must call done exactly once, on any goroutine, and must not
// block the caller while the operation is in flight. Callers always pass a non-nil done.
type AsyncAccessor[V any] interface {
	Read(ctx context.Context, done func(V, error))
	Write(ctx context.Context, v V, done func(error))
}

// Executor runs tasks somewhere other than the calling goroutine.
// See the executor package for goroutine-per-task and worker-pool implementations.
type Executor interface {
	Submit(task func())
}

// Funcs adapts a pair of plain functions to Accessor.
type Funcs[V any] struct {
	ReadFn  func(ctx context.Context) (V, error)
	WriteFn func(ctx context.Context, v V) error
}

var _ Accessor[int] = Funcs[int]{}

func (f Funcs[V]) Read(ctx context.Context) (V, error) {
	if f.ReadFn == nil {
		var zero V
		return zero, ErrNotSupported
	}
	return f.ReadFn(ctx)
}

func (f Funcs[V]) Write(ctx context.Context, v V) error {
	if f.WriteFn == nil {
		return ErrNotSupported
	}
	return f.WriteFn(ctx, v)
}

// AsyncFuncs adapts a pair of callback-style functions to AsyncAccessor.
type AsyncFuncs[V any] struct {
	ReadFn  func(ctx context.Context, done func(V, error))
	WriteFn func(ctx context.Context, v V, done func(error))
}

var _ AsyncAccessor[int] = AsyncFuncs[int]{}

func (f AsyncFuncs[V]) Read(ctx context.Context, done func(V, error)) {
	if f.ReadFn == nil {
		var zero V
		done(zero, ErrNotSupported)
		return
	}
	f.ReadFn(ctx, done)
}

func (f AsyncFuncs[V]) Write(ctx context.Context, v V, done func(error)) {
	if f.WriteFn == nil {
		done(ErrNotSupported)
		return
	}
	f.WriteFn(ctx, v, done)
}

// Async lifts a blocking Accessor onto exec: every Read/Write becomes one task
// and done runs on the executor's goroutine once the blocking call returns.
// A nil exec runs each call on its own goroutine.
func Async[V any](acc Accessor[V], exec Executor) AsyncAccessor[V] {
	if exec == nil {
		exec = goroutineExecutor{}
	}
	return &asyncAdapter[V]{acc: acc, exec: exec}
}

type goroutineExecutor struct{}

func (goroutineExecutor) Submit(task func()) { go task() }

type asyncAdapter[V any] struct {
	acc  Accessor[V]
	exec Executor
}

func (a *asyncAdapter[V]) Read(ctx context.Context, done func(V, error)) {
	a.exec.Submit(func() {
		v, err := a.acc.Read(ctx)
		done(v, err)
	})
}

func (a *asyncAdapter[V]) Write(ctx context.Context, v V, done func(error)) {
	a.exec.Submit(func() {
		done(a.acc.Write(ctx, v))
	})
}
