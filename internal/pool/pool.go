// Package pool provides a fixed-size goroutine pool with a bounded input queue.
package pool

import (
	"context"
	"sync"
)

// Pool runs fn for every submitted item on n goroutines. With n == 1 items are
// handled in submission order.
type Pool[T any] struct {
	queue   chan T
	process func(ctx context.Context, t T)
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New creates and starts a pool with n goroutines and queue capacity depth.
func New[T any](ctx context.Context, n, depth int, fn func(context.Context, T)) *Pool[T] {
	if n < 1 {
		n = 1
	}
	if depth < 0 {
		depth = 0
	}
	p := &Pool[T]{
		queue:   make(chan T, depth),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *Pool[T]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, t)
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues an item without blocking. It returns false when the queue is
// full or the pool has been drained.
func (p *Pool[T]) Submit(t T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- t:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for queued items to finish. Safe to call
// more than once.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Len returns how many items are currently queued.
func (p *Pool[T]) Len() int {
	return len(p.queue)
}

// Cap returns the total queue capacity.
func (p *Pool[T]) Cap() int {
	return cap(p.queue)
}
