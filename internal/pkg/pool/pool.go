package pool

import (
	"sync"
	"sync/atomic"
)

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	closed  atomic.Bool
	mu      sync.RWMutex
	dropped atomic.Int64
}

func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan func(), n*2),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.jobs {
				if f != nil {
					f()
				}
			}
		}()
	}
	return p
}

// Submit blocks while the queue is full. Jobs submitted after Close are dropped.
func (p *Pool) Submit(f func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		p.dropped.Add(1)
		return
	}
	p.jobs <- f
}

// TrySubmit never blocks; it reports false and drops f when the queue is full
// or the pool is closed.
func (p *Pool) TrySubmit(f func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		p.dropped.Add(1)
		return false
	}
	select {
	case p.jobs <- f:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

func (p *Pool) Dropped() int64 { return p.dropped.Load() }

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return
	}
	close(p.jobs)
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
