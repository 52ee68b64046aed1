package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"roomy-listing/pkg/logger"
)

// Task represents a unit of work to be executed
type Task struct {
	ID      string
	Fn      func(ctx context.Context) error
	Timeout time.Duration
}

// PoolConfig holds configuration for the worker pool
type PoolConfig struct {
	MaxWorkers      int
	QueueSize       int
	TaskTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultPoolConfig returns the configuration used for batch lookups
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxWorkers:      runtime.NumCPU(),
		QueueSize:       100,
		TaskTimeout:     30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Stats is a snapshot of pool counters
type Stats struct {
	Submitted uint64
	Completed uint64
	Failed    uint64
	Panicked  uint64
}

// Pool runs submitted tasks on a fixed number of goroutines
type Pool struct {
	config PoolConfig
	tasks  chan Task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *logger.Logger

	mu      sync.RWMutex
	started atomic.Bool
	stopped bool

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// NewPool creates a pool. Zero config fields fall back to DefaultPoolConfig,
// except TaskTimeout where zero means no per-task deadline. A negative
// ShutdownTimeout makes Stop wait for every queued task.
func NewPool(config PoolConfig, log *logger.Logger) *Pool {
	defaults := DefaultPoolConfig()
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaults.MaxWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config: config,
		tasks:  make(chan Task, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		log:    log.WithComponent("worker_pool"),
	}
}

// Start launches the workers
func (p *Pool) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool already started")
	}

	p.log.WithField("max_workers", p.config.MaxWorkers).Debug("Starting worker pool")
	for i := 0; i < p.config.MaxWorkers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runWorker(id)
		}(i)
	}
	return nil
}

// Submit queues a task, blocking while the queue is full
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return fmt.Errorf("worker pool is stopped")
	}
	if !p.started.Load() {
		return fmt.Errorf("worker pool not started")
	}
	if task.Timeout == 0 {
		task.Timeout = p.config.TaskTimeout
	}

	select {
	case p.tasks <- task:
		p.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %s: %w", task.ID, ctx.Err())
	}
}

// Stop waits for queued tasks to finish. Tasks still running after
// ShutdownTimeout have their context cancelled.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	if p.config.ShutdownTimeout < 0 {
		<-done
		p.cancel()
		return nil
	}

	select {
	case <-done:
	case <-time.After(p.config.ShutdownTimeout):
		p.log.Warn("Worker pool shutdown timeout exceeded, cancelling running tasks")
		p.cancel()
		<-done
	}
	p.cancel()
	return nil
}

// Stats returns current counters
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

func (p *Pool) runWorker(id int) {
	log := p.log.WithField("worker_id", id)
	for task := range p.tasks {
		if err := p.execute(task); err != nil {
			p.failed.Add(1)
			log.WithField("task_id", task.ID).WithError(err).Debug("Task failed")
		}
		p.completed.Add(1)
	}
}

func (p *Pool) execute(task Task) (err error) {
	ctx := p.ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			err = fmt.Errorf("task %s panicked: %v", task.ID, r)
		}
	}()

	return task.Fn(ctx)
}
