package accessor_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/accessor"
	"github.com/unkn0wn-root/accessor/executor"
	"github.com/unkn0wn-root/accessor/store"
)

const waitFor = 5 * time.Second

func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatalf("completion never fired")
		panic("unreachable")
	}
}

var errTimeout = errors.New("completion never fired")

// awaitErr is await for goroutines other than the test's own.
func awaitErr(ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	case <-time.After(waitFor):
		return errTimeout
	}
}

func getSync[V any](t *testing.T, c *accessor.AsyncCached[V], reload bool) (V, error) {
	t.Helper()
	type res struct {
		v   V
		err error
	}
	ch := make(chan res, 1)
	c.Get(context.Background(), reload, func(v V, err error) { ch <- res{v, err} })
	r := await(t, ch)
	return r.v, r.err
}

func errDone() (func(error), <-chan error) {
	ch := make(chan error, 1)
	return func(err error) { ch <- err }, ch
}

// gatedWrites is an AsyncAccessor whose writes complete only when the test says so.
type gatedWrites struct {
	mu      sync.Mutex
	stored  int
	pending []func()
	queued  chan struct{}
	calls   atomic.Int64
}

func newGatedWrites(initial int) *gatedWrites {
	return &gatedWrites{stored: initial, queued: make(chan struct{}, 16)}
}

func (g *gatedWrites) Read(_ context.Context, done func(int, error)) {
	g.mu.Lock()
	v := g.stored
	g.mu.Unlock()
	go done(v, nil)
}

func (g *gatedWrites) Write(_ context.Context, v int, done func(error)) {
	g.calls.Add(1)
	g.mu.Lock()
	g.pending = append(g.pending, func() {
		g.mu.Lock()
		g.stored = v
		g.mu.Unlock()
		done(nil)
	})
	g.mu.Unlock()
	g.queued <- struct{}{}
}

// release completes the oldest pending write.
func (g *gatedWrites) release() {
	g.mu.Lock()
	f := g.pending[0]
	g.pending = g.pending[1:]
	g.mu.Unlock()
	f()
}

func TestAsyncScenario(t *testing.T) {
	ctx := context.Background()
	pool := executor.NewPool(1, 16)
	defer pool.Close()

	box, acc := newBoxed(t, 10)
	c, err := accessor.NewAsyncCached[int](accessor.Async[int](acc, pool))
	if err != nil {
		t.Fatal(err)
	}

	if v, err := getSync(t, c, false); err != nil || v != 10 {
		t.Fatalf("first Get: v=%d err=%v", v, err)
	}

	done, ch := errDone()
	c.Set(ctx, 15, done)
	if err := await(t, ch); err != nil {
		t.Fatal(err)
	}
	if box.Load() != 15 {
		t.Fatalf("box=%d after Set completion", box.Load())
	}

	c.SetCacheOnly(16)
	if box.Load() != 15 {
		t.Fatalf("SetCacheOnly reached the store")
	}
	if v, _ := getSync(t, c, true); v != 15 {
		t.Fatalf("reload must bypass cache-only value, got %d", v)
	}

	c.SetCacheOnly(23)
	done, ch = errDone()
	c.Push(ctx, done)
	if err := await(t, ch); err != nil || box.Load() != 23 {
		t.Fatalf("Push: err=%v box=%d", err, box.Load())
	}

	c.Clear()
	before := acc.reads.Load()
	if v, _ := getSync(t, c, false); v != 23 || acc.reads.Load()-before != 1 {
		t.Fatalf("Get after Clear: v=%d reads=%d", v, acc.reads.Load()-before)
	}
}

func TestAsyncGetHitCompletesInline(t *testing.T) {
	_, acc := newBoxed(t, 1)
	c, _ := accessor.NewAsyncCachedSeeded[int](accessor.Async[int](acc, nil), 7)

	called := false
	c.Get(context.Background(), false, func(v int, err error) {
		called = v == 7 && err == nil
	})
	if !called {
		t.Fatalf("cache hit must complete before Get returns")
	}
	if acc.reads.Load() != 0 {
		t.Fatalf("cache hit reached the backing store")
	}
}

func TestAsyncSetOrdering(t *testing.T) {
	ctx := context.Background()
	g := newGatedWrites(0)
	c, _ := accessor.NewAsyncCached[int](g)

	var completed atomic.Bool
	done, ch := errDone()
	c.Set(ctx, 42, func(err error) {
		completed.Store(true)
		done(err)
	})
	await(t, g.queued)

	// cell updated before the backing write finished
	hit := false
	c.Get(ctx, false, func(v int, _ error) { hit = v == 42 })
	if !hit {
		t.Fatalf("Get after Set must observe the new value while the write is in flight")
	}
	if completed.Load() {
		t.Fatalf("Set completed before its backing write")
	}

	g.release()
	if err := await(t, ch); err != nil {
		t.Fatal(err)
	}
	if !completed.Load() {
		t.Fatalf("completion flag not set")
	}
}

func TestAsyncBackingWritesNotFIFO(t *testing.T) {
	ctx := context.Background()
	g := newGatedWrites(0)
	c, _ := accessor.NewAsyncCached[int](g)

	done1, ch1 := errDone()
	done2, ch2 := errDone()
	c.Set(ctx, 1, done1)
	await(t, g.queued)
	c.Set(ctx, 2, done2)
	await(t, g.queued)

	// complete the second write first; the store ends at the first value
	g.mu.Lock()
	g.pending[0], g.pending[1] = g.pending[1], g.pending[0]
	g.mu.Unlock()
	g.release()
	await(t, ch2)
	g.release()
	await(t, ch1)

	if v, _ := c.Cached(); v != 2 {
		t.Fatalf("cell: got %d want 2 (last Set)", v)
	}
	g.mu.Lock()
	stored := g.stored
	g.mu.Unlock()
	if stored != 1 {
		t.Fatalf("store: got %d want 1 (last completed write)", stored)
	}
}

// barrier makes the first n calls wait for each other; later calls pass through.
func barrier(n int) func() {
	var (
		calls atomic.Int64
		wg    sync.WaitGroup
	)
	wg.Add(n)
	return func() {
		if calls.Add(1) <= int64(n) {
			wg.Done()
			wg.Wait()
		}
	}
}

func TestAsyncMutateRace(t *testing.T) {
	ctx := context.Background()
	_, acc := newBoxed(t, 0)
	c, _ := accessor.NewAsyncCachedSeeded[int](accessor.Async[int](acc, executor.Goroutine{}), 10)

	wait := barrier(2)
	var eg errgroup.Group
	for _, d := range []int{1, 2} {
		d := d
		eg.Go(func() error {
			done, ch := errDone()
			c.Mutate(ctx, func(v *int) {
				wait()
				*v += d
			}, done)
			return awaitErr(ch)
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	v, _ := c.Cached()
	if v != 11 && v != 12 {
		t.Fatalf("last writer wins: got %d, want 11 or 12", v)
	}
	if n := acc.writes.Load(); n != 2 {
		t.Fatalf("each Mutate issues its own backing write: got %d", n)
	}
}

func TestAsyncMutateCASNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	box, acc := newBoxed(t, 0)
	c, _ := accessor.NewAsyncCachedSeeded[int](accessor.Async[int](acc, executor.Goroutine{}), 10, accessor.WithHooks(hooks))

	wait := barrier(2)
	var eg errgroup.Group
	for _, d := range []int{1, 2} {
		d := d
		eg.Go(func() error {
			done, ch := errDone()
			c.MutateCAS(ctx, func(v *int) {
				wait()
				*v += d
			}, done)
			return awaitErr(ch)
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	if v, _ := c.Cached(); v != 13 {
		t.Fatalf("MutateCAS lost an update: got %d want 13", v)
	}
	hooks.mu.Lock()
	conflicts := hooks.conflicts
	hooks.mu.Unlock()
	if conflicts < 1 {
		t.Fatalf("expected at least one conflict, got %d", conflicts)
	}
	if n := acc.writes.Load(); n != 2 {
		t.Fatalf("backing writes: got %d want 2", n)
	}
	if w := acc.writtenValues(); w[0]+w[1] != 11+13 && w[0]+w[1] != 12+13 {
		t.Fatalf("unexpected backing writes %v (box=%d)", w, box.Load())
	}
}

func TestAsyncMutateCASReadsThroughWhenEmpty(t *testing.T) {
	ctx := context.Background()
	box, acc := newBoxed(t, 5)
	c, _ := accessor.NewAsyncCached[int](accessor.Async[int](acc, nil))

	done, ch := errDone()
	c.MutateCAS(ctx, func(v *int) { *v *= 2 }, done)
	if err := await(t, ch); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Cached(); v != 10 || box.Load() != 10 || acc.reads.Load() != 1 {
		t.Fatalf("cell=%d box=%d reads=%d", v, box.Load(), acc.reads.Load())
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	done, ch = errDone()
	c.MutateCAS(cctx, func(v *int) { *v = -1 }, done)
	if err := await(t, ch); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAsyncConcurrentSets(t *testing.T) {
	ctx := context.Background()
	pool := executor.NewPool(4, 64)
	defer pool.Close()

	_, acc := newBoxed(t, 0)
	c, _ := accessor.NewAsyncCached[int](accessor.Async[int](acc, pool))

	const n = 50
	var eg errgroup.Group
	for i := 1; i <= n; i++ {
		i := i
		eg.Go(func() error {
			done, ch := errDone()
			c.Set(ctx, i, done)
			return awaitErr(ch)
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	v, ok := c.Cached()
	if !ok || v < 1 || v > n {
		t.Fatalf("cell holds %d ok=%v", v, ok)
	}
	if acc.writes.Load() != n {
		t.Fatalf("backing writes: got %d want %d", acc.writes.Load(), n)
	}
}

func TestAsyncFailures(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("backend down")
	hooks := &recordingHooks{}
	box, acc := newBoxed(t, 1)
	c, _ := accessor.NewAsyncCached[int](accessor.Async[int](acc, nil), accessor.WithHooks(hooks))

	acc.failReads(errDown)
	if _, err := getSync(t, c, false); !errors.Is(err, errDown) {
		t.Fatalf("Get: expected backing error, got %v", err)
	}
	if _, ok := c.Cached(); ok {
		t.Fatalf("failed read filled the cell")
	}

	done, ch := errDone()
	c.Mutate(ctx, func(*int) { t.Errorf("mutation ran after a failed read") }, done)
	if err := await(t, ch); !errors.Is(err, errDown) {
		t.Fatalf("Mutate: expected backing error, got %v", err)
	}

	acc.failWrites(errDown)
	done, ch = errDone()
	c.Set(ctx, 9, done)
	if err := await(t, ch); err != errDown {
		t.Fatalf("Set must forward the backing error unchanged, got %v", err)
	}
	if v, _ := c.Cached(); v != 9 || box.Load() != 1 {
		t.Fatalf("cell=%d box=%d, want cache ahead of store", v, box.Load())
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.readFailed != 2 || hooks.writeFailed != 1 {
		t.Fatalf("hooks: readFailed=%d writeFailed=%d", hooks.readFailed, hooks.writeFailed)
	}
}

func TestAsyncPushEmptyAndNilDone(t *testing.T) {
	ctx := context.Background()
	box, acc := newBoxed(t, 0)
	c, _ := accessor.NewAsyncCached[int](accessor.Async[int](acc, executor.Inline{}))

	done, ch := errDone()
	c.Push(ctx, done)
	if err := await(t, ch); err != nil || acc.writes.Load() != 0 {
		t.Fatalf("empty Push: err=%v writes=%d", err, acc.writes.Load())
	}

	// fire-and-forget; Inline executor completes before returning
	c.Set(ctx, 4, nil)
	c.Push(ctx, nil)
	c.Mutate(ctx, func(v *int) { *v++ }, nil)
	c.Get(ctx, true, nil)
	c.Reload(ctx, nil)
	if box.Load() != 5 || acc.writes.Load() != 3 {
		t.Fatalf("box=%d writes=%d", box.Load(), acc.writes.Load())
	}
}

func TestAsyncFuncsAdapter(t *testing.T) {
	f := accessor.AsyncFuncs[int]{
		ReadFn: func(_ context.Context, done func(int, error)) { done(3, nil) },
	}
	c, _ := accessor.NewAsyncCached[int](f)

	if v, err := getSync(t, c, false); err != nil || v != 3 {
		t.Fatalf("Get: v=%d err=%v", v, err)
	}
	done, ch := errDone()
	c.Set(context.Background(), 4, done)
	if err := await(t, ch); !errors.Is(err, accessor.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

// A read completing on a single-worker pool continues into a backing write
// submitted from that same worker while the queue holds other work.
func TestAsyncMutateOnSaturatedSerialPool(t *testing.T) {
	ctx := context.Background()
	mutators := map[string]func(*accessor.AsyncCached[int], func(*int), func(error)){
		"mutate": func(c *accessor.AsyncCached[int], fn func(*int), done func(error)) { c.Mutate(ctx, fn, done) },
		"mutate_cas": func(c *accessor.AsyncCached[int], fn func(*int), done func(error)) {
			c.MutateCAS(ctx, fn, done)
		},
	}
	for name, mutate := range mutators {
		t.Run(name, func(t *testing.T) {
			box := store.NewBox(10)
			entered := make(chan struct{})
			gate := make(chan struct{})
			gated := accessor.Funcs[int]{
				ReadFn: func(ctx context.Context) (int, error) {
					close(entered)
					<-gate
					return box.Read(ctx)
				},
				WriteFn: box.Write,
			}

			pool := executor.NewPool(1, 1)
			defer pool.Close()
			c, _ := accessor.NewAsyncCached[int](accessor.Async[int](gated, pool))

			done, ch := errDone()
			mutate(c, func(v *int) { *v++ }, done)
			await(t, entered)

			filler := make(chan struct{})
			pool.Submit(func() { close(filler) })
			close(gate)

			if err := await(t, ch); err != nil {
				t.Fatalf("mutate: %v", err)
			}
			await(t, filler)
			if box.Load() != 11 {
				t.Fatalf("box=%d want 11", box.Load())
			}
		})
	}
}

func TestAsyncMutateCASRetriesInPlace(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	box, acc := newBoxed(t, 0)
	c, _ := accessor.NewAsyncCachedSeeded[int](accessor.Async[int](acc, executor.Inline{}), 0, accessor.WithHooks(hooks))

	const conflicts = 1000
	var (
		calls  int
		depths []int
		pcs    = make([]uintptr, 8192)
	)
	done, ch := errDone()
	c.MutateCAS(ctx, func(v *int) {
		calls++
		depths = append(depths, runtime.Callers(0, pcs))
		if calls <= conflicts {
			c.SetCacheOnly(-calls) // someone else got there first
			return
		}
		*v += 100
	}, done)
	if err := await(t, ch); err != nil {
		t.Fatal(err)
	}

	if v, _ := c.Cached(); v != 100-conflicts || box.Load() != 100-conflicts {
		t.Fatalf("cell=%d box=%d want %d", v, box.Load(), 100-conflicts)
	}
	if hooks.conflicts != conflicts {
		t.Fatalf("conflicts=%d want %d", hooks.conflicts, conflicts)
	}
	if first, last := depths[0], depths[len(depths)-1]; first != last {
		t.Fatalf("stack grew across retries: depth %d -> %d", first, last)
	}
}

// A read-through that was in flight before a cache-only Set lands afterwards
// and replaces the newer cell value with what the store returned.
func TestAsyncInFlightReadOverwritesLaterSet(t *testing.T) {
	ctx := context.Background()
	reads := make(chan func(int, error), 1)
	f := accessor.AsyncFuncs[int]{
		ReadFn:  func(_ context.Context, done func(int, error)) { reads <- done },
		WriteFn: func(_ context.Context, _ int, done func(error)) { done(nil) },
	}
	c, _ := accessor.NewAsyncCached[int](f)

	got := make(chan int, 1)
	c.Reload(ctx, func(v int, _ error) { got <- v })
	complete := await(t, reads)

	c.SetCacheOnly(5)
	if v, _ := c.Cached(); v != 5 {
		t.Fatalf("cell=%d after SetCacheOnly", v)
	}

	complete(1, nil)
	if v := await(t, got); v != 1 {
		t.Fatalf("Reload delivered %d want 1", v)
	}
	if v, _ := c.Cached(); v != 1 {
		t.Fatalf("cell=%d: the landed read must replace the cache-only value", v)
	}
}
