package meshing

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Shutdown()

	var count atomic.Int32
	tasks := make([]*Task, 50)
	for i := range tasks {
		tasks[i] = pool.Submit(func() { count.Add(1) })
	}
	for _, task := range tasks {
		task.Wait()
		if !task.Completed() {
			t.Fatalf("task returned from Wait without completing")
		}
	}
	if count.Load() != 50 {
		t.Fatalf("ran %d tasks, want 50", count.Load())
	}
}

// blockWorker occupies the single worker of pool until release is closed.
func blockWorker(pool *WorkerPool) (*Task, chan struct{}) {
	started := make(chan struct{})
	release := make(chan struct{})
	task := pool.Submit(func() {
		close(started)
		<-release
	})
	<-started
	return task, release
}

func TestCancelQueuedTask(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Shutdown()

	blocker, release := blockWorker(pool)
	var ran atomic.Bool
	queued := pool.Submit(func() { ran.Store(true) })
	if pool.QueueLength() != 1 {
		t.Fatalf("queue length %d, want 1", pool.QueueLength())
	}

	if !pool.Cancel(queued) {
		t.Fatalf("queued task could not be cancelled")
	}
	if !queued.Cancelled() || queued.Completed() {
		t.Fatalf("cancelled task reports cancelled=%v completed=%v", queued.Cancelled(), queued.Completed())
	}
	if pool.QueueLength() != 0 {
		t.Fatalf("cancelled task still queued")
	}
	queued.Wait()

	if pool.Cancel(blocker) {
		t.Fatalf("running task must not be cancellable")
	}
	close(release)
	blocker.Wait()

	// Anything after the cancelled task still runs.
	pool.Submit(func() {}).Wait()
	if ran.Load() {
		t.Fatalf("cancelled task ran")
	}
}

func TestCancelFinishedTask(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Shutdown()

	task := pool.Submit(func() {})
	task.Wait()
	if pool.Cancel(task) {
		t.Fatalf("finished task must not be cancellable")
	}
}

func TestShutdownRevokesQueuedTasks(t *testing.T) {
	pool := NewWorkerPool(1)
	_, release := blockWorker(pool)

	var ran atomic.Bool
	queued := pool.Submit(func() { ran.Store(true) })

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()
	queued.Wait()
	close(release)
	<-done

	if !queued.Cancelled() || ran.Load() {
		t.Fatalf("queued task survived shutdown")
	}
	late := pool.Submit(func() { ran.Store(true) })
	if !late.Cancelled() {
		t.Fatalf("submit after shutdown must return a cancelled task")
	}
	late.Wait()
}
