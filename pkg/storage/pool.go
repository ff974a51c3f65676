package storage

import (
	"context"
	"sync"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
)

// WorkerPool dispatches short-running storage work items onto a fixed set
// of goroutines, presenting the synchronous KV substrate as an async
// façade: short operations execute immediately on a free worker, and
// long scans are handed off to Stream for chunked, cancellable delivery.
type WorkerPool struct {
	jobs chan func()
	wg   sync.WaitGroup

	closeOnce sync.Once
	done      chan struct{}
}

// NewWorkerPool starts a pool of n goroutines draining a shared job
// queue. n<=0 defaults to 4.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = 4
	}
	p := &WorkerPool{
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
		case <-p.done:
			return
		}
	}
}

// Submit runs fn on a pool worker and returns its result, honoring ctx
// cancellation while waiting for a free worker. A cancellation that
// arrives after fn has already started does not stop fn — cancellation
// is best-effort and never unwinds a batch that has already been
// submitted to the underlying store.
func Submit[T any](ctx context.Context, p *WorkerPool, fn func() (T, error)) (T, error) {
	var zero T
	resultCh := make(chan struct {
		v   T
		err error
	}, 1)

	job := func() {
		v, err := fn()
		resultCh <- struct {
			v   T
			err error
		}{v, err}
	}

	select {
	case p.jobs <- job:
	case <-p.done:
		return zero, errs.Closed("storage.pool", nil)
	case <-ctx.Done():
		return zero, errs.Cancelled("storage.pool", ctx.Err())
	}

	select {
	case r := <-resultCh:
		return r.v, r.err
	case <-ctx.Done():
		// Best effort: the job is already running or queued; we stop
		// waiting on it but do not attempt to unwind any write it may
		// commit.
		return zero, errs.Cancelled("storage.pool", ctx.Err())
	}
}

// Close stops accepting new jobs and waits for in-flight jobs to drain.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
