package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrPoolSaturated is returned by Submit when the queue stayed full for
	// longer than the saturation timeout.
	ErrPoolSaturated = errors.New("task pool saturated")

	// ErrPoolClosed is returned by Submit once the pool has drained to idle or
	// has been stopped.
	ErrPoolClosed = errors.New("task pool closed")
)

// Task is a unit of work executed by a TaskPool. The context is cancelled
// when the pool is stopped.
type Task func(ctx context.Context)

// TaskPoolConfig configures a TaskPool.
type TaskPoolConfig struct {
	// CoreWorkers are started eagerly and live until the pool stops (default: 5)
	CoreWorkers int
	// MaxWorkers caps the number of workers; extra workers are spawned while
	// the queue has a backlog (default: 10)
	MaxWorkers int
	// QueueSize bounds the number of submitted tasks waiting for a worker (default: 1024)
	QueueSize int
	// KeepAlive is how long an extra worker stays idle before exiting (default: 5 seconds)
	KeepAlive time.Duration
	// SaturationTimeout is how long Submit blocks on a full queue before
	// returning ErrPoolSaturated (default: 2 seconds)
	SaturationTimeout time.Duration
}

// DefaultTaskPoolConfig returns the default pool configuration.
func DefaultTaskPoolConfig() TaskPoolConfig {
	return TaskPoolConfig{
		CoreWorkers:       5,
		MaxWorkers:        10,
		QueueSize:         1024,
		KeepAlive:         5 * time.Second,
		SaturationTimeout: 2 * time.Second,
	}
}

func (c TaskPoolConfig) withDefaults() TaskPoolConfig {
	def := DefaultTaskPoolConfig()
	if c.CoreWorkers <= 0 {
		c.CoreWorkers = def.CoreWorkers
	}
	if c.MaxWorkers < c.CoreWorkers {
		c.MaxWorkers = c.CoreWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = def.KeepAlive
	}
	if c.SaturationTimeout <= 0 {
		c.SaturationTimeout = def.SaturationTimeout
	}
	return c
}

// TaskPool is a bounded worker pool with an outstanding-task counter.
//
// Goroutine Lifecycle:
//   - CoreWorkers goroutines start in NewTaskPool and run until Stop
//   - Extra workers, up to MaxWorkers, start when Submit finds a backlog and
//     exit after KeepAlive without work
//   - Stop cancels the task context and waits for every worker to return
//
// Termination detection: the counter is incremented when Submit accepts a
// task and decremented when the task returns (panics included). The Idle
// channel closes the first time the counter drops back to zero. A pool is
// single-use: once idle, further submissions fail with ErrPoolClosed.
//
// Example:
//
//	pool := NewTaskPool(ctx, DefaultTaskPoolConfig(), logger)
//	defer pool.Stop()
//	_ = pool.Submit(func(ctx context.Context) { ... })
//	err := pool.AwaitIdle(ctx)
type TaskPool struct {
	cfg    TaskPoolConfig
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan Task
	idle   chan struct{}
	wg     sync.WaitGroup

	mu          sync.Mutex
	outstanding int
	workers     int
	idleClosed  bool
	halted      bool
	stopped     bool
}

// NewTaskPool creates a pool and starts its core workers.
func NewTaskPool(ctx context.Context, cfg TaskPoolConfig, logger *slog.Logger) *TaskPool {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	poolCtx, cancel := context.WithCancel(ctx)

	p := &TaskPool{
		cfg:    cfg,
		logger: logger,
		ctx:    poolCtx,
		cancel: cancel,
		queue:  make(chan Task, cfg.QueueSize),
		idle:   make(chan struct{}),
	}

	p.mu.Lock()
	for i := 0; i < cfg.CoreWorkers; i++ {
		p.spawnLocked(true)
	}
	p.mu.Unlock()

	return p
}

// Submit queues task for execution. When the queue is full it blocks up to
// SaturationTimeout and then returns an error wrapping ErrPoolSaturated; the
// task is not counted in that case and the caller decides what to do with it.
// Submitting to a halted pool is a no-op.
func (p *TaskPool) Submit(task Task) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if p.halted {
		p.mu.Unlock()
		return nil
	}
	if p.idleClosed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.outstanding++
	if len(p.queue) > 0 && p.workers < p.cfg.MaxWorkers {
		p.spawnLocked(false)
	}
	p.mu.Unlock()

	select {
	case p.queue <- task:
		return nil
	default:
	}

	timer := time.NewTimer(p.cfg.SaturationTimeout)
	defer timer.Stop()

	select {
	case p.queue <- task:
		return nil
	case <-timer.C:
		p.done()
		return fmt.Errorf("%w: %d tasks queued", ErrPoolSaturated, cap(p.queue))
	case <-p.ctx.Done():
		p.done()
		return ErrPoolClosed
	}
}

// Halt makes every later Submit a no-op and drops queued tasks that have not
// started yet. Running tasks are left to finish.
func (p *TaskPool) Halt() {
	p.mu.Lock()
	p.halted = true
	p.mu.Unlock()
}

// Halted reports whether Halt or Stop has been called.
func (p *TaskPool) Halted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halted
}

// Outstanding returns the number of accepted tasks that have not returned.
func (p *TaskPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Workers returns the number of live worker goroutines.
func (p *TaskPool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Idle returns a channel that is closed once the outstanding counter drops
// to zero.
func (p *TaskPool) Idle() <-chan struct{} {
	return p.idle
}

// AwaitIdle blocks until the pool is idle or ctx is done.
func (p *TaskPool) AwaitIdle(ctx context.Context) error {
	select {
	case <-p.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop halts the pool, cancels the task context and waits for all workers.
// Tasks still queued are discarded. Stop is idempotent.
func (p *TaskPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.halted = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	for {
		select {
		case <-p.queue:
			p.done()
		default:
			return
		}
	}
}

// spawnLocked starts a worker. Caller must hold p.mu.
func (p *TaskPool) spawnLocked(core bool) {
	p.workers++
	p.wg.Add(1)
	go p.work(core)
}

func (p *TaskPool) work(core bool) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		p.workers--
		p.mu.Unlock()
	}()

	var keepAlive *time.Timer
	if !core {
		keepAlive = time.NewTimer(p.cfg.KeepAlive)
		defer keepAlive.Stop()
	}

	for {
		var expired <-chan time.Time
		if keepAlive != nil {
			expired = keepAlive.C
		}

		select {
		case task := <-p.queue:
			p.run(task)
			if keepAlive != nil {
				keepAlive.Reset(p.cfg.KeepAlive)
			}
		case <-expired:
			return
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *TaskPool) run(task Task) {
	defer p.done()
	if p.Halted() {
		return
	}
	defer RecoverWithCallback(p.logger, nil)
	task(p.ctx)
}

func (p *TaskPool) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding--
	if p.outstanding == 0 && !p.idleClosed {
		p.idleClosed = true
		close(p.idle)
	}
}
