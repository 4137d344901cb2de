// Package workerpool runs background tasks on a fixed set of goroutines.
//
// Submit never blocks: when every worker is busy and the queue is full it
// returns ErrPoolFull and the caller decides what to drop.
//
//	pool := workerpool.New("events", 4, 256)
//	defer pool.Shutdown(ctx)
//
//	if err := pool.Submit(func() { publish(e) }); err != nil {
//	    log.Warn("event dropped", "error", err)
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hayatshop/storefront/pkg/logger"
)

var (
	ErrPoolFull   = errors.New("workerpool: pool is full")
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

type Pool struct {
	name  string
	tasks chan func()

	mu     sync.RWMutex
	closed bool

	wg   sync.WaitGroup
	once sync.Once
}

// New starts size workers sharing a queue of the given depth. Non-positive
// values fall back to one worker and a queue twice the worker count.
func New(name string, size, queue int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue <= 0 {
		queue = size * 2
	}

	p := &Pool{name: name, tasks: make(chan func(), queue)}
	for range size {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Shutdown stops intake and waits for queued tasks to drain or ctx to end.
// It is safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("workerpool %s: shutdown: %w", p.name, ctx.Err())
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run keeps a panicking task from taking its worker down.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker task panicked", "pool", p.name, "panic", r)
		}
	}()
	task()
}
