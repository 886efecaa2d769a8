// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-service/internal/dao"
	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/metrics"
	"github.com/haierkeys/fast-note-service/internal/service"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/limiter"
	"github.com/haierkeys/fast-note-service/pkg/workerpool"
	"github.com/haierkeys/fast-note-service/pkg/writequeue"

	"github.com/lxzan/gws"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config    *AppConfig
	logger    *zap.Logger
	DB        *gorm.DB
	Dao       *dao.Dao
	StartTime time.Time

	// 并发控制组件
	// workerPool 通知推送池，单 worker 按提交顺序投递
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository 层
	UserRepo   domain.UserRepository
	NoteRepo   domain.RevisionedNoteRepository
	FolderRepo domain.FolderRepository
	TagRepo    domain.TagRepository

	// Service 层
	UserService   service.UserService
	NoteService   service.NoteService
	FolderService service.FolderService
	TagService    service.TagService
	Notifier      service.ChangeNotifier

	// 基础设施组件
	TokenManager pkgapp.TokenManager
	// Hub 实时订阅者注册表
	Hub *pkgapp.WebsocketServer
	// IPLimiter 按客户端 IP 的限流器，由定时任务清理
	IPLimiter *limiter.IPLimiter

	// 关闭控制
	shutdownCh chan struct{}
	closeOnce  sync.Once
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化通知推送用的 Worker Pool
	wpConfig := cfg.GetNotifyPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	a.Dao = dao.New(db, cfg.Database.Type, logger)

	// 初始化 TokenManager
	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    cfg.Security.Issuer,
		Expiry:    cfg.GetTokenExpiry(),
	})

	// 初始化 Repository 层
	a.UserRepo = dao.NewUserRepository(a.Dao)
	a.NoteRepo = dao.NewNoteRepository(a.Dao)
	a.FolderRepo = dao.NewFolderRepository(a.Dao)
	a.TagRepo = dao.NewTagRepository(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable: cfg.User.RegisterIsEnable,
		},
		Note: service.NoteServiceConfig{
			StrictRevision: cfg.Note.StrictRevision,
			HistoryDiff:    cfg.Note.HistoryDiff,
		},
	}

	a.UserService = service.NewUserService(a.UserRepo, a.TokenManager, logger, svcConfig)

	// 实时通道：连接在发送 Authorization 帧后绑定用户
	a.Hub = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			Recovery:            gws.Recovery, // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true},
			ReadMaxPayloadSize:  64 * 1024,
			WriteMaxPayloadSize: 16 * 1024 * 1024,
		},
	}, a.TokenManager, logger)
	a.Hub.UseUserVerify(func(ctx context.Context, uid int64) error {
		_, err := a.UserService.Verify(ctx, uid)
		return err
	})
	metrics.SetClientCounter(a.Hub.ClientCount)

	a.Notifier = service.NewChangeNotifier(a.Hub, a.workerPool, cfg.Notify.Scope, logger)
	a.NoteService = service.NewNoteService(a.NoteRepo, a.FolderRepo, a.TagRepo, a.writeQueueMgr, a.Notifier, logger, svcConfig)
	a.FolderService = service.NewFolderService(a.FolderRepo, logger)
	a.TagService = service.NewTagService(a.TagRepo, logger)

	a.IPLimiter = limiter.NewIPLimiter(cfg.GetIPLimiterRule())

	logger.Info("App container initialized successfully",
		zap.Int("notifyQueueSize", wpConfig.QueueSize),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity),
		zap.String("notifyScope", cfg.Notify.Scope),
		zap.Bool("strictRevision", cfg.Note.StrictRevision))

	return a, nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：实时连接 -> Write Queue Manager -> Worker Pool -> Database
// 写队列先于 Worker Pool 排空，最后的写入产生的事件仍可投递
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	var errs []error
	a.closeOnce.Do(func() {
		a.logger.Info("App container shutting down...")
		close(a.shutdownCh)

		if a.Hub != nil {
			a.Hub.Shutdown()
		}

		if a.writeQueueMgr != nil {
			if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
				a.logger.Warn("write queue manager shutdown error", zap.Error(err))
				errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
			}
		}

		if a.workerPool != nil {
			if err := a.workerPool.Shutdown(ctx); err != nil {
				a.logger.Warn("Worker pool shutdown error", zap.Error(err))
				errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
			}
		}

		if a.Dao != nil {
			if err := a.Dao.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			} else {
				a.logger.Info("Database connection closed")
			}
		}
	})

	if len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}
	a.logger.Info("App container shutdown completed")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}
