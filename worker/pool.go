package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs queued jobs on a fixed set of worker goroutines. The queue is
// unbuffered: Submit hands a job directly to an idle worker, so jobs start
// in submission order.
type Pool struct {
	workers int
	jobs    chan func()
	wg      sync.WaitGroup
	closed  atomic.Bool

	submitted atomic.Uint64
	completed atomic.Uint64
}

// NewPool starts a pool with the given number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		workers: workers,
		jobs:    make(chan func()),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit queues one job, blocking until a worker takes it. It returns false
// without running the job when ctx is canceled first or the pool is closed.
// Submit must not race Close; the submitting goroutine owns the shutdown.
func (p *Pool) Submit(ctx context.Context, job func()) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case p.jobs <- job:
		p.submitted.Add(1)
		return true
	}
}

// TrySubmit queues a job only if a worker is idle right now. It returns
// false when every worker is busy or the pool is closed.
func (p *Pool) TrySubmit(job func()) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case p.jobs <- job:
		p.submitted.Add(1)
		return true
	default:
		return false
	}
}

// Close stops the pool and waits for the workers to finish their current
// jobs. It is safe to call more than once.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.jobs)
	p.wg.Wait()
}

// Stats returns current pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
	}
}

// Stats contains pool counters.
type Stats struct {
	Workers   int
	Submitted uint64
	Completed uint64
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		job()
		p.completed.Add(1)
	}
}
