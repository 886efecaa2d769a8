// Package workerpool runs background jobs on a fixed set of goroutines.
// 用于限制并发 goroutine 数量，通知推送等后台任务都经由此池执行
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed Worker Pool 已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 任务在执行前被取消
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config Worker Pool 配置
type Config struct {
	MaxWorkers     int     // 最大并发 worker 数量，默认 16
	QueueSize      int     // 任务队列大小，默认 1024
	WarningPercent float64 // 告警阈值百分比，默认 0.8
}

func DefaultConfig() Config {
	return Config{
		MaxWorkers:     16,
		QueueSize:      1024,
		WarningPercent: 0.8,
	}
}

type task struct {
	ctx context.Context
	fn  func(context.Context) error
}

// Pool 管理 goroutine 生命周期的 Worker Pool
type Pool struct {
	config Config
	logger *zap.Logger

	taskCh   chan task
	workerWg sync.WaitGroup

	active   atomic.Int64
	rejected atomic.Int64
	panics   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed and the send side of taskCh
	mu     sync.RWMutex
	closed bool
}

// New starts cfg.MaxWorkers workers. A nil cfg uses DefaultConfig.
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
		if cfg.WarningPercent > 0 && cfg.WarningPercent <= 1 {
			c.WarningPercent = cfg.WarningPercent
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		logger: logger,
		taskCh: make(chan task, c.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < c.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))
	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.taskCh:
			if !ok {
				return
			}
			p.run(t)
		}
	}
}

func (p *Pool) run(t task) {
	p.active.Add(1)
	defer p.active.Add(-1)

	// 积压超过阈值时告警
	if queued := len(p.taskCh); queued > 0 && queued >= int(float64(p.config.QueueSize)*p.config.WarningPercent) {
		p.logger.Warn("worker pool queue approaching capacity",
			zap.Int("queuedCount", queued),
			zap.Int("queueSize", p.config.QueueSize))
	}

	var err error
	func() {
		// 任务 panic 不能拖垮 worker
		defer func() {
			if r := recover(); r != nil {
				p.panics.Add(1)
				err = fmt.Errorf("worker pool task panic: %v", r)
				p.logger.Error("worker pool task panic", zap.Any("recover", r))
			}
		}()
		if t.ctx.Err() != nil {
			err = ErrTaskCancelled
			return
		}
		err = t.fn(t.ctx)
	}()

	if err != nil {
		p.logger.Debug("worker pool task failed", zap.Error(err))
	}
}

func (p *Pool) enqueue(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	select {
	case p.taskCh <- t:
		return nil
	default:
		p.rejected.Add(1)
		return ErrWorkerPoolFull
	}
}

// SubmitAsync queues fn without waiting. It never blocks: a full queue is an error.
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(task{ctx: ctx, fn: fn})
}

func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown stops accepting work and drains the queue. When ctx expires first,
// running tasks see their pool context cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.taskCh)
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.active.Load()),
		zap.Int("queuedCount", len(p.taskCh)))

	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// Metrics Worker Pool 指标快照
type Metrics struct {
	MaxWorkers    int   `json:"maxWorkers"`
	ActiveCount   int64 `json:"activeCount"`
	QueuedCount   int   `json:"queuedCount"`
	QueueCapacity int   `json:"queueCapacity"`
	Rejected      int64 `json:"rejected"`
	Panics        int64 `json:"panics"`
	IsClosed      bool  `json:"isClosed"`
}

func (p *Pool) GetMetrics() Metrics {
	return Metrics{
		MaxWorkers:    p.config.MaxWorkers,
		ActiveCount:   p.active.Load(),
		QueuedCount:   len(p.taskCh),
		QueueCapacity: p.config.QueueSize,
		Rejected:      p.rejected.Load(),
		Panics:        p.panics.Load(),
		IsClosed:      p.IsClosed(),
	}
}
