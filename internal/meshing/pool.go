package meshing

import (
	"sync"
	"sync/atomic"
)

// Task states
const (
	taskQueued int32 = iota
	taskRunning
	taskDone
	taskCancelled
)

// Task is a handle to one unit of background work.
type Task struct {
	fn    func()
	state atomic.Int32
	done  chan struct{}
}

// Completed reports whether the task function has returned.
func (t *Task) Completed() bool {
	return t.state.Load() == taskDone
}

// Cancelled reports whether the task was pulled from the queue before it ran.
func (t *Task) Cancelled() bool {
	return t.state.Load() == taskCancelled
}

// Wait blocks until the task has either finished or been cancelled.
func (t *Task) Wait() {
	<-t.done
}

// WorkerPool manages goroutines for background tessellation. Jobs wait in
// a FIFO queue until a worker takes them; queued jobs can still be revoked.
type WorkerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Task
	closed  bool
	workers int
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new pool and starts its workers
func NewWorkerPool(workers int) *WorkerPool {
	workers = max(workers, 1)
	pool := &WorkerPool{workers: workers}
	pool.cond = sync.NewCond(&pool.mu)

	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// Submit queues fn and returns its handle. It never blocks. After Shutdown
// the returned task is already cancelled.
func (p *WorkerPool) Submit(fn func()) *Task {
	t := &Task{fn: fn, done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		t.state.Store(taskCancelled)
		close(t.done)
		return t
	}
	p.queue = append(p.queue, t)
	p.cond.Signal()
	return t
}

// Cancel revokes a task that has not started yet. It returns false once a
// worker has picked the task up or it has already finished.
func (p *WorkerPool) Cancel(t *Task) bool {
	if !t.state.CompareAndSwap(taskQueued, taskCancelled) {
		return t.state.Load() == taskCancelled
	}
	close(t.done)

	p.mu.Lock()
	for i, q := range p.queue {
		if q == t {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	return true
}

// worker is the worker goroutine that processes queued tasks
func (p *WorkerPool) worker(id int) {
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
		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		// Lost the race against Cancel.
		if !t.state.CompareAndSwap(taskQueued, taskRunning) {
			continue
		}
		t.fn()
		t.state.Store(taskDone)
		close(t.done)
	}
}

// Shutdown revokes everything still queued and waits for running tasks.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	pending := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, t := range pending {
		if t.state.CompareAndSwap(taskQueued, taskCancelled) {
			close(t.done)
		}
	}
	p.wg.Wait()
}

// QueueLength returns the current number of tasks waiting for a worker
func (p *WorkerPool) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}
