// Package jobs runs per-document work on a bounded set of CPU workers.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrPanic wraps a panic recovered from a handler.
	ErrPanic = errors.New("handler panicked")

	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("worker pool closed")
)

// WorkUnit is one item of work, typically one document name.
type WorkUnit struct {
	ID   string
	Name string
}

// WorkResult is the outcome of one unit.
type WorkResult struct {
	Unit     *WorkUnit
	Value    any
	Err      error
	Duration time.Duration
}

// Handler processes one unit. Implementations must be safe for concurrent use.
type Handler func(ctx context.Context, unit *WorkUnit) (any, error)

// PoolStatus reports a pool's current state.
type PoolStatus struct {
	Name       string `json:"name"`
	Workers    int    `json:"workers"`
	InFlight   int    `json:"in_flight"`
	QueueDepth int    `json:"queue_depth"`
	Processed  int64  `json:"processed"`
	Failed     int64  `json:"failed"`
}

// CPUWorkerPool manages a pool of workers for CPU-bound tasks.
// All workers share a single queue - natural load balancing via Go channel semantics.
type CPUWorkerPool struct {
	name        string
	logger      *slog.Logger
	workerCount int
	handler     Handler

	queue   chan *WorkUnit
	results chan WorkResult

	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup

	inFlight  atomic.Int32
	processed atomic.Int64
	failed    atomic.Int64
}

// CPUWorkerPoolConfig configures a new CPU worker pool.
type CPUWorkerPoolConfig struct {
	Name        string
	Logger      *slog.Logger
	WorkerCount int // Number of worker goroutines (default: runtime.NumCPU())
	QueueSize   int // Queue size (default: 4 per worker)
	Handler     Handler
}

// NewCPUWorkerPool creates a new CPU worker pool.
func NewCPUWorkerPool(cfg CPUWorkerPoolConfig) *CPUWorkerPool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "cpu"
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = workerCount * 4
	}

	return &CPUWorkerPool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
		handler:     cfg.Handler,
		queue:       make(chan *WorkUnit, queueSize),
		results:     make(chan WorkResult, queueSize),
	}
}

// Name returns the pool name.
func (p *CPUWorkerPool) Name() string {
	return p.name
}

// Results delivers one WorkResult per submitted unit. It is closed once
// the pool is closed and every worker has exited.
func (p *CPUWorkerPool) Results() <-chan WorkResult {
	return p.results
}

// Start launches the workers. Workers exit when ctx is cancelled or the
// queue is closed and drained.
func (p *CPUWorkerPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(ctx, i)
		}
		go func() {
			p.wg.Wait()
			close(p.results)
		}()
		p.logger.Debug("cpu pool started")
	})
}

// worker processes work units from the shared queue.
func (p *CPUWorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return

		case unit, ok := <-p.queue:
			if !ok {
				return
			}
			p.inFlight.Add(1)
			result := p.process(ctx, unit)
			p.inFlight.Add(-1)

			p.processed.Add(1)
			if result.Err != nil {
				p.failed.Add(1)
			}
			p.logger.Debug("cpu worker completed unit", "worker_id", id, "unit", unit.Name, "success", result.Err == nil)

			select {
			case p.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues a unit, blocking while the queue is full.
func (p *CPUWorkerPool) Submit(ctx context.Context, unit *WorkUnit) error {
	if p.closed.Load() {
		return fmt.Errorf("%w: %s", ErrPoolClosed, p.name)
	}
	select {
	case p.queue <- unit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work. Queued units are still processed.
func (p *CPUWorkerPool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.queue)
	})
}

// Run starts the pool, submits every unit, closes the pool and hands each
// result to collect on the calling goroutine.
func (p *CPUWorkerPool) Run(ctx context.Context, units []*WorkUnit, collect func(WorkResult)) error {
	p.Start(ctx)

	submitErr := make(chan error, 1)
	go func() {
		defer p.Close()
		for _, unit := range units {
			if err := p.Submit(ctx, unit); err != nil {
				submitErr <- err
				return
			}
		}
		submitErr <- nil
	}()

	for result := range p.results {
		collect(result)
	}
	if err := <-submitErr; err != nil {
		return err
	}
	return ctx.Err()
}

// Status returns current pool status.
func (p *CPUWorkerPool) Status() PoolStatus {
	return PoolStatus{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: len(p.queue),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
	}
}

// process executes one unit. A panicking handler fails only its own unit.
func (p *CPUWorkerPool) process(ctx context.Context, unit *WorkUnit) (result WorkResult) {
	result.Unit = unit
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result.Value = nil
			result.Err = fmt.Errorf("%w: %s: %v", ErrPanic, unit.Name, r)
			p.logger.Error("cpu work unit panicked", "unit", unit.Name, "panic", r)
		}
		result.Duration = time.Since(start)
	}()

	if p.handler == nil {
		result.Err = fmt.Errorf("no handler registered for pool %s", p.name)
		return result
	}
	result.Value, result.Err = p.handler(ctx, unit)
	return result
}
