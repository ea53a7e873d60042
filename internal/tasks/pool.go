// Package tasks runs detached jobs on a fixed set of background workers
// and hands results back through pollable handles.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is the error of a task spawned on a closed pool.
var ErrClosed = errors.New("task pool closed")

// Pool is a fixed-size worker pool draining an unbounded FIFO queue.
// Spawning never blocks the caller.
type Pool struct {
	log  *slog.Logger
	size int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines. workers below 1 is treated as 1.
func NewPool(workers int, log *slog.Logger) *Pool {
	workers = max(workers, 1)
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		log:    log,
		size:   workers,
		ctx:    ctx,
		cancel: cancel,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	log.Debug("task pool started", "workers", workers)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close cancels every queued and running task and waits for the workers to
// exit. Queued jobs resolve as cancelled without running.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.cond.Broadcast()
	p.wg.Wait()
	p.log.Debug("task pool stopped")
}

func (p *Pool) submit(job func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, job)
	p.cond.Signal()
	return true
}

func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	job := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return job, true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		job()
	}
}

// Spawn queues fn on p and returns its handle. fn receives a context that
// is cancelled when ctx is, when the task is cancelled or when the pool
// closes.
func Spawn[T any](p *Pool, ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	tctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{ch: make(chan result[T], 1), cancel: cancel}

	stop := context.AfterFunc(p.ctx, cancel)
	job := func() {
		defer stop()
		defer cancel()
		if p.ctx.Err() != nil {
			t.ch <- result[T]{err: context.Canceled}
			return
		}
		t.ch <- run(tctx, fn)
	}
	if !p.submit(job) {
		stop()
		cancel()
		t.ch <- result[T]{err: ErrClosed}
	}
	return t
}

func run[T any](ctx context.Context, fn func(context.Context) (T, error)) (res result[T]) {
	if err := ctx.Err(); err != nil {
		return result[T]{err: err}
	}
	defer func() {
		if r := recover(); r != nil {
			res = result[T]{err: fmt.Errorf("task panicked: %v", r)}
		}
	}()
	v, err := fn(ctx)
	if err == nil && ctx.Err() != nil {
		// Finished after cancellation; the result is no longer wanted.
		err = ctx.Err()
	}
	return result[T]{v: v, err: err}
}
