// Package worker provides a bounded worker pool for mapping evaluation.
// Uses github.com/gammazero/workerpool to cap the number of goroutines.
package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gammazero/workerpool"
)

// Task is one unit of work. It receives the pool's context, which is
// canceled as soon as any task fails.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed number of workers. Submit blocks once
// QueueSize tasks are waiting or running.
type Pool struct {
	wp         *workerpool.WorkerPool
	maxWorkers int
	slots      chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64

	mu      sync.Mutex
	stopped bool
	err     error
}

// Config holds worker pool configuration
type Config struct {
	// MaxWorkers is the number of concurrent workers (0 = NumCPU)
	MaxWorkers int
	// QueueSize bounds tasks in flight (0 = 4 per worker)
	QueueSize int
}

// DefaultConfig sizes the pool to the machine.
func DefaultConfig() *Config {
	return &Config{MaxWorkers: runtime.NumCPU()}
}

// NewPool creates a pool whose tasks run under a child of ctx.
func NewPool(ctx context.Context, cfg *Config) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 4 * workers
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		wp:         workerpool.New(workers),
		maxWorkers: workers,
		slots:      make(chan struct{}, queue),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Context returns the pool's context.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Submit queues a task, waiting for a free slot. It fails once the pool
// is stopped or its context is done.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrPoolStopped
	}
	if err := p.ctx.Err(); err != nil {
		return err
	}

	select {
	case p.slots <- struct{}{}:
	case <-p.ctx.Done():
		return p.ctx.Err()
	}

	p.submitted.Add(1)
	p.wp.Submit(func() {
		defer func() { <-p.slots }()

		if p.ctx.Err() != nil {
			p.skipped.Add(1)
			return
		}
		if err := task(p.ctx); err != nil {
			p.failed.Add(1)
			p.fail(err)
			return
		}
		p.completed.Add(1)
	})
	return nil
}

// fail records the first task error and cancels the remaining work.
func (p *Pool) fail(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
	p.cancel()
}

// Wait stops accepting tasks, waits for queued ones, and returns the
// first task error. Without a task error it reports the parent
// context's error, if any.
func (p *Pool) Wait() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.wp.StopWait()

	p.mu.Lock()
	err := p.err
	p.mu.Unlock()

	if err == nil {
		err = p.ctx.Err()
	}
	p.cancel()
	return err
}

// Stats holds pool counters.
type Stats struct {
	MaxWorkers int   `json:"max_workers"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Skipped    int64 `json:"skipped"`
	Pending    int64 `json:"pending"`
}

// Stats returns current pool statistics
func (p *Pool) Stats() Stats {
	submitted := p.submitted.Load()
	completed := p.completed.Load()
	failed := p.failed.Load()
	skipped := p.skipped.Load()

	return Stats{
		MaxWorkers: p.maxWorkers,
		Submitted:  submitted,
		Completed:  completed,
		Failed:     failed,
		Skipped:    skipped,
		Pending:    submitted - completed - failed - skipped,
	}
}

// Errors
var (
	ErrPoolStopped = &PoolError{msg: "worker pool is stopped"}
)

type PoolError struct {
	msg string
}

func (e *PoolError) Error() string {
	return e.msg
}
