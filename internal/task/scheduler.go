package task

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/fast-note-service/internal/metrics"
	"github.com/haierkeys/fast-note-service/pkg/logger"
	"github.com/haierkeys/fast-note-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Spec() string                  // cron 表达式，支持 @daily / @every 30m
	Run(ctx context.Context) error // 执行任务
}

// 任务结果标签
const (
	resultSuccess = "success"
	resultFailed  = "failed"
	resultPanic   = "panic"
)

// taskTimeout bounds a single run.
const taskTimeout = 10 * time.Minute

var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSpec 校验 cron 表达式
func ParseSpec(spec string) (cron.Schedule, error) {
	return specParser.Parse(spec)
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	cron   *cron.Cron
	tasks  []Task
	sc     *safe_close.SafeClose
}

// NewScheduler 创建任务调度器
func NewScheduler(lg *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Scheduler{
		logger: lg,
		cron:   cron.New(cron.WithParser(specParser)),
		tasks:  make([]Task, 0),
		sc:     sc,
	}
}

// AddTask 添加任务，表达式非法时返回错误
func (s *Scheduler) AddTask(task Task) error {
	if _, err := s.cron.AddFunc(task.Spec(), func() { s.runTask(task) }); err != nil {
		return fmt.Errorf("task %s: invalid spec %q: %w", task.Name(), task.Spec(), err)
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Tasks 已注册的任务
func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

// Start 启动所有任务，收到关闭信号后等待正在执行的任务结束
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))
	s.cron.Start()

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		<-s.cron.Stop().Done()
		s.logger.Info("tasks stopped")
	})
}

// runTask 执行单个任务并记录结果
func (s *Scheduler) runTask(task Task) {
	start := time.Now()
	result := resultSuccess

	defer func() {
		if r := recover(); r != nil {
			result = resultPanic
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
		metrics.TaskRuns.WithLabelValues(task.Name(), result).Inc()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		result = resultFailed
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("task log",
		zap.String("name", task.Name()),
		zap.Duration(logger.FieldDuration, time.Since(start)),
		zap.String("msg", resultSuccess))
}
