package fs

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool runs fire-and-forget background tasks with bounded parallelism.
// Submitting never blocks the caller; tasks queue on the semaphore inside
// their own goroutine, so one slow walk does not hold up unrelated work
// beyond the configured width.
type Pool struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a pool running at most workers tasks at once. A value of
// zero or less uses the number of CPUs.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(workers)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go schedules task. Tasks submitted after Close are dropped.
func (p *Pool) Go(task func()) {
	if p.ctx.Err() != nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		task()
	}()
}

// Close stops accepting tasks, drops queued ones and waits for running
// ones to finish.
func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
}
