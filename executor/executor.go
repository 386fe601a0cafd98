// Package executor provides execution contexts for dispatching backing accessor calls.
//
//	pool := executor.NewPool(1, 256) // serial queue
//	defer pool.Close()
//
//	acc := accessor.Async[int](store.NewBox(10), pool)
package executor

import "sync"

// Goroutine runs every task on its own goroutine.
type Goroutine struct{}

func (Goroutine) Submit(task func()) { go task() }

// Inline runs the task on the caller's goroutine. Handy in tests.
type Inline struct{}

func (Inline) Submit(task func()) { task() }

// Pool is a fixed set of workers draining a FIFO queue.
// With one worker, tasks run one at a time in submission order.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	wg   sync.WaitGroup
	once sync.Once
}

// NewPool starts workers goroutines. qlen preallocates queue slots; the queue
// grows past it rather than making Submit wait.
// workers <= 0 => 1; qlen <= 0 => 1024.
func NewPool(workers, qlen int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	p := &Pool{queue: make([]func(), 0, qlen)}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task()
	}
}

// Submit enqueues task and returns without waiting, also when called from a
// task running on this pool. Tasks are never dropped: once the pool is closed,
// Submit runs the task on a fresh goroutine instead.
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		go task()
		return
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()
	p.cond.Signal()
}

// Pending reports how many tasks are queued and not yet picked up by a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting tasks, runs everything already queued and waits for the workers.
// Must not be called from inside a task.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.cond.Broadcast()
		p.wg.Wait()
	})
}
