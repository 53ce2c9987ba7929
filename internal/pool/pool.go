// Package pool provides a bounded worker pool for running one scan/route
// pipeline per admitted file concurrently, generalized from
// sdk/client.go's single-producer task-channel pattern into a
// multi-consumer pool.
package pool

import (
	"context"
	"sync"
)

// Task is one unit of work submitted to the pool.
type Task func(ctx context.Context) error

// Pool runs submitted tasks across a bounded number of worker goroutines.
// A width of 1 runs every task sequentially on the submitting goroutine's
// behalf, with no goroutine overhead.
type Pool struct {
	width int
	tasks chan Task

	wg       sync.WaitGroup
	errsMu   sync.Mutex
	errs     []error
}

// New builds a Pool with the given width (clamped to at least 1).
func New(width int) *Pool {
	if width < 1 {
		width = 1
	}
	return &Pool{
		width: width,
		tasks: make(chan Task, width*2),
	}
}

// Start launches the pool's worker goroutines. For width==1, Submit runs
// tasks inline instead, so Start is a no-op in that case.
func (p *Pool) Start(ctx context.Context) {
	if p.width == 1 {
		return
	}
	for range p.width {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				if err := task(ctx); err != nil {
					p.recordErr(err)
				}
			}
		}()
	}
}

// Submit enqueues task. With width==1, it runs task synchronously on the
// caller's goroutine instead of enqueuing it.
func (p *Pool) Submit(ctx context.Context, task Task) {
	if p.width == 1 {
		if err := task(ctx); err != nil {
			p.recordErr(err)
		}
		return
	}
	p.tasks <- task
}

func (p *Pool) recordErr(err error) {
	p.errsMu.Lock()
	defer p.errsMu.Unlock()
	p.errs = append(p.errs, err)
}

// Close stops accepting new tasks, waits for in-flight tasks to drain, and
// returns every error collected along the way.
func (p *Pool) Close() []error {
	if p.width > 1 {
		close(p.tasks)
		p.wg.Wait()
	}
	p.errsMu.Lock()
	defer p.errsMu.Unlock()
	return p.errs
}
