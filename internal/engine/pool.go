package engine

import (
	"errors"
	"sync"
)

var (
	// ErrPoolSaturated is returned when the task queue is full.
	ErrPoolSaturated = errors.New("worker pool saturated")
	// ErrPoolClosed is returned when the pool is shutting down.
	ErrPoolClosed = errors.New("worker pool closed")
)

// pool is a fixed-size worker pool with a bounded task queue. Submission
// never blocks: a full queue rejects the task so the caller can apply
// back-pressure instead of stalling the request path.
type pool struct {
	mu     sync.Mutex
	tasks  chan func()
	wg     sync.WaitGroup
	closed bool
}

func newPool(workers, capacity int) *pool {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = workers
	}
	p := &pool{tasks: make(chan func(), capacity)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

func (p *pool) submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolSaturated
	}
}

// close stops intake and waits for in-flight tasks to finish.
func (p *pool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
