// Package writequeue serializes writes per owner.
// 同一用户的写操作按 FIFO 顺序串行执行，避免 SQLite "database is locked" 与读改写交错
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 用户写队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 写队列管理器已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 写操作等待超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	QueueCapacity int           // 每用户队列容量，默认 100
	WriteTimeout  time.Duration // 写操作超时时间，默认 30 秒
	IdleTimeout   time.Duration // 空闲清理超时时间，默认 10 分钟
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

type userQueue struct {
	uid      int64
	ch       chan writeOp
	stopCh   chan struct{}
	done     chan struct{}
	pending  int // guarded by Manager.mu; queued plus running
	lastUsed time.Time
}

// Manager owns one queue and one worker goroutine per active user.
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[int64]*userQueue
	closed bool

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// New creates write queue manager. A nil cfg uses DefaultConfig.
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:      c,
		logger:      logger,
		queues:      make(map[int64]*userQueue),
		cleanupStop: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go m.cleanupLoop()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))
	return m
}

// Execute runs fn after every earlier Execute for the same uid has finished.
// Execute 执行写操作
func (m *Manager) Execute(ctx context.Context, uid int64, fn func() error) error {
	result := make(chan error, 1)
	op := writeOp{ctx: ctx, fn: fn, result: result}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrWriteQueueClosed
	}
	q := m.queues[uid]
	if q == nil {
		q = &userQueue{
			uid:    uid,
			ch:     make(chan writeOp, m.config.QueueCapacity),
			stopCh: make(chan struct{}),
			done:   make(chan struct{}),
		}
		m.queues[uid] = q
		go m.worker(q)
		m.logger.Debug("created write queue for user", zap.Int64("uid", uid))
	}
	select {
	case q.ch <- op:
		q.pending++
		q.lastUsed = time.Now()
	default:
		m.mu.Unlock()
		return ErrWriteQueueFull
	}
	m.mu.Unlock()

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

func (m *Manager) worker(q *userQueue) {
	defer close(q.done)
	for {
		select {
		case op := <-q.ch:
			m.run(q, op)
		case <-q.stopCh:
			// 排空剩余操作
			for {
				select {
				case op := <-q.ch:
					m.run(q, op)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) run(q *userQueue, op writeOp) {
	defer func() {
		m.mu.Lock()
		q.pending--
		q.lastUsed = time.Now()
		m.mu.Unlock()
	}()

	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("write queue op panic", zap.Int64("uid", q.uid), zap.Any("recover", r))
				err = errors.New("write operation panicked")
			}
		}()
		err = op.fn()
	}()
	op.result <- err
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.cleanupStop:
			return
		case <-ticker.C:
			m.cleanup(time.Now())
		}
	}
}

// cleanup stops queues with nothing queued or running that have been idle past IdleTimeout.
func (m *Manager) cleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for uid, q := range m.queues {
		if q.pending == 0 && now.Sub(q.lastUsed) > m.config.IdleTimeout {
			close(q.stopCh)
			delete(m.queues, uid)
			n++
		}
	}
	if n > 0 {
		m.logger.Debug("cleaned up idle write queues", zap.Int("count", n))
	}
	return n
}

// Shutdown refuses new writes, lets queued ones finish and waits for every worker.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*userQueue, 0, len(m.queues))
	for _, q := range m.queues {
		close(q.stopCh)
		queues = append(queues, q)
	}
	m.queues = make(map[int64]*userQueue)
	m.mu.Unlock()

	close(m.cleanupStop)
	m.logger.Info("write queue manager shutting down", zap.Int("queues", len(queues)))

	done := make(chan struct{})
	go func() {
		for _, q := range queues {
			<-q.done
		}
		<-m.cleanupDone
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout")
		return ctx.Err()
	}
}

// Metrics 写队列管理器指标
type Metrics struct {
	QueueCapacity int  `json:"queueCapacity"`
	ActiveQueues  int  `json:"activeQueues"`
	IsClosed      bool `json:"isClosed"`
}

func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  len(m.queues),
		IsClosed:      m.closed,
	}
}
