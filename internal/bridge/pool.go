package bridge

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool is closed")

const (
	DefaultPoolWorkers = 4
	DefaultPoolQueue   = 16
)

type poolTask struct {
	run    func() *InvocationResult
	result chan *InvocationResult
}

// Pool runs blocking invocations on a fixed set of workers so callers can
// await results instead of tying up their own goroutine. The queue is
// bounded; Submit blocks when it is full.
type Pool struct {
	tasks chan poolTask
	quit  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewPool(workers, queue int) *Pool {
	if workers <= 0 {
		workers = DefaultPoolWorkers
	}
	if queue <= 0 {
		queue = DefaultPoolQueue
	}
	p := &Pool{
		tasks: make(chan poolTask, queue),
		quit:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			task.result <- task.run()
		}
	}
}

// Submit queues fn for execution and returns a channel that receives its
// result exactly once. The channel is buffered, so the worker never blocks
// on a caller that stopped waiting.
func (p *Pool) Submit(ctx context.Context, fn func() *InvocationResult) (<-chan *InvocationResult, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	task := poolTask{run: fn, result: make(chan *InvocationResult, 1)}
	select {
	case p.tasks <- task:
		return task.result, nil
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the workers after their current tasks finish. Queued tasks
// that no worker picked up are abandoned.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
}
