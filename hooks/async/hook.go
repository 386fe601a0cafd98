// Package asynchook moves accessor.Hooks calls off the cache's goroutines.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{ReadThroughEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := accessor.NewAsyncCached[Settings](acc, accessor.WithHooks(hooks))
//
// Events are dropped when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/accessor"
)

type Hooks struct {
	inner accessor.Hooks
	q     chan func()
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	dropped atomic.Uint64
}

var _ accessor.Hooks = (*Hooks)(nil)

func New(inner accessor.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close delivers queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ReadThrough(n, r string)       { h.try(func() { h.inner.ReadThrough(n, r) }) }
func (h *Hooks) ReadFailed(n string, e error)  { h.try(func() { h.inner.ReadFailed(n, e) }) }
func (h *Hooks) WriteFailed(n string, e error) { h.try(func() { h.inner.WriteFailed(n, e) }) }
func (h *Hooks) PushEmpty(n string)            { h.try(func() { h.inner.PushEmpty(n) }) }
func (h *Hooks) SelfHeal(k, r string)          { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) MutateConflict(n string, a int) {
	h.try(func() { h.inner.MutateConflict(n, a) })
}
