package task

import (
	"context"
	"sync"
)

// Pool runs submitted jobs on a fixed set of goroutines. The manager keeps one
// pool per work category (meshing, foliage).
type Pool struct {
	name     string
	jobQueue chan func()
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPool creates a pool and starts its workers.
func NewPool(name string, workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	pool := &Pool{
		name:     name,
		jobQueue: make(chan func(), queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	for range workers {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// Name returns the pool's category name.
func (p *Pool) Name() string {
	return p.name
}

// Submit queues a job without blocking.
// Returns true if job was submitted successfully, false if queue is full
func (p *Pool) Submit(job func()) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitBlocking queues a job, waiting for room. It returns false once the
// pool is shut down.
func (p *Pool) SubmitBlocking(job func()) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			job()
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for running jobs to return. Jobs still
// queued are dropped; handles wrapping them stay queued, so Wait runs them on
// the caller.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength returns the current number of jobs in the queue
func (p *Pool) QueueLength() int {
	return len(p.jobQueue)
}

// Start wraps fn in a handle and queues it on p. onDone, if set, runs on the
// executing goroutine once the result is visible through IsDone and before
// waiters are released.
func Start[T any](p *Pool, fn func() T, onDone func()) *Handle[T] {
	h := NewHandle(fn, onDone)
	if !p.Submit(h.run) {
		p.SubmitBlocking(h.run)
	}
	return h
}
