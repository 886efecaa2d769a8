package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	internalApp "github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dao"
	"github.com/haierkeys/fast-note-service/internal/routers"
	"github.com/haierkeys/fast-note-service/internal/task"
	"github.com/haierkeys/fast-note-service/internal/upgrade"
	"github.com/haierkeys/fast-note-service/pkg/logger"
	"github.com/haierkeys/fast-note-service/pkg/safe_close"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"go.uber.org/zap"
)

// defaultSecretKeys 需要检测的默认密钥列表
var defaultSecretKeys = []string{
	defaultAuthTokenKey,
	"",
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

type Server struct {
	logger            *zap.Logger             // 日志对象
	config            *internalApp.AppConfig  // 应用配置（注入的依赖）
	ut                *ut.UniversalTranslator // 翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App // App Container
	closeLogger       func() error     // 刷新并关闭日志文件
}

// checkSecurityConfig 检查安全配置，如果使用默认密钥则输出警告
func checkSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	for _, key := range defaultSecretKeys {
		if cfg.Security.AuthTokenKey == key {
			fmt.Println()
			fmt.Println(strings.Repeat("=", 60))
			fmt.Println("SECURITY WARNING: Using default secret key!")
			fmt.Println()
			fmt.Println("Please modify 'security.auth-token-key' in config.yaml")
			fmt.Println("Generate a secure key with:")
			fmt.Println("  openssl rand -base64 32")
			fmt.Println(strings.Repeat("=", 60))
			fmt.Println()
			lg.Warn("Using default secret key - please change security.auth-token-key in config.yaml")
			return
		}
	}
}

func NewServer(runEnv *runFlags) (srv *Server, err error) {

	// 使用 LoadConfig 直接加载配置到 AppConfig
	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if len(runEnv.port) > 0 {
		if !strings.Contains(runEnv.port, ":") {
			runEnv.port = ":" + runEnv.port
		}
		appConfig.Server.HttpPort = runEnv.port
	}

	// 确定运行模式
	runMode := runEnv.runMode
	if len(runMode) <= 0 {
		runMode = appConfig.Server.RunMode
	}
	if len(runMode) > 0 {
		gin.SetMode(runMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	if err := initStorage(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	lg, closeLogger, err := logger.NewLogger(appConfig.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}
	s.logger = lg
	s.closeLogger = closeLogger
	defer func() {
		if err != nil {
			_ = closeLogger()
		}
	}()

	checkSecurityConfig(appConfig, s.logger)

	if err := initTracer(s); err != nil {
		return nil, fmt.Errorf("initTracer: %w", err)
	}

	db, err := dao.NewDBEngine(appConfig.Database)
	if err != nil {
		return nil, fmt.Errorf("initDatabase: %w", err)
	}

	// 自动执行数据升级
	if appConfig.Database.AutoMigrate {
		if err := upgrade.Execute(context.Background(), db, s.logger); err != nil {
			return nil, fmt.Errorf("upgrade.Execute: %w", err)
		}
	}

	// 初始化 App Container
	app, err := internalApp.NewApp(appConfig, s.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	s.app = app

	uni, err := initValidator()
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	// 启动调度器
	initScheduler(s)

	banner := `
    ______           __     _   __      __
   / ____/___ ______/ /_   / | / /___  / /____
  / /_  / __ ` + "`" + `/ ___/ __/  /  |/ / __ \/ __/ _ \
 / __/ / /_/ (__  ) /_   / /|  / /_/ / /_/  __/
/_/    \__,_/____/\__/  /_/ |_/\____/\__/\___/ `
	s.logger.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	// 启动 HTTP API 服务器
	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewRouter(s.app, s.ut),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve("api service", s.httpServer)
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", httpAddr))
		s.privateHttpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewPrivateRouter(runMode, s.logger),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve("private api service", s.privateHttpServer)
	}

	// 注册 App Container 的优雅关闭
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal

		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
	})

	return s, nil
}

// serve 启动 HTTP 服务，监听失败时通知整体关闭
func (s *Server) serve(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// 停止HTTP服务器
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	manager := task.NewManager(s.app, s.sc)

	// 注册所有任务(业务层控制)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}
	manager.Start()
}

// initTracer 开启 jaeger 时设置全局 tracer，否则使用 opentracing 默认的空实现
func initTracer(s *Server) error {
	jc := s.config.Tracer.Jaeger
	if !jc.Enabled {
		return nil
	}

	cfg := jaegercfg.Configuration{
		ServiceName: jc.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: jc.SampleRate,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort:  jc.AgentHost,
			BufferFlushInterval: time.Second,
		},
	}
	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaegerLogger{s.logger}))
	if err != nil {
		return err
	}
	opentracing.SetGlobalTracer(tracer)

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		closeTracer(closer, s.logger)
	})
	s.logger.Info("jaeger tracer enabled", zap.String("agent", jc.AgentHost))
	return nil
}

func closeTracer(closer io.Closer, lg *zap.Logger) {
	opentracing.SetGlobalTracer(opentracing.NoopTracer{})
	if err := closer.Close(); err != nil {
		lg.Warn("jaeger tracer close error", zap.Error(err))
	}
}

// jaegerLogger 将 jaeger 的日志接入 zap
type jaegerLogger struct {
	lg *zap.Logger
}

func (l jaegerLogger) Error(msg string) {
	l.lg.Error("jaeger", zap.String("msg", msg))
}

func (l jaegerLogger) Infof(msg string, args ...interface{}) {
	l.lg.Debug("jaeger", zap.String("msg", fmt.Sprintf(msg, args...)))
}

// initValidator 初始化验证器，返回 UniversalTranslator
// 错误字段使用 json tag 名称
func initValidator() (*ut.UniversalTranslator, error) {
	validate, ok := binding.Validator.Engine().(*validatorV10.Validate)
	if !ok {
		return nil, nil
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	uni := ut.New(en.New(), en.New(), zh.New())

	zhTran, _ := uni.GetTranslator("zh")
	enTran, _ := uni.GetTranslator("en")

	if err := zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
		return nil, err
	}
	if err := en_translations.RegisterDefaultTranslations(validate, enTran); err != nil {
		return nil, err
	}
	return uni, nil
}

// initStorage 初始化存储目录
func initStorage(cfg *internalApp.AppConfig) error {
	dirs := []string{filepath.Dir(cfg.Log.File)}
	if cfg.Database.Type == dao.TypeSQLite && cfg.Database.Path != ":memory:" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Shutdown 通知所有组件关闭并等待退出，最后刷新并关闭日志文件
func (s *Server) Shutdown() error {
	s.sc.SendCloseSignal(nil)
	err := s.sc.WaitClosed()
	if err != nil {
		s.logger.Error("Shutdown completed with error", zap.Error(err))
	} else {
		s.logger.Info("Service has been shut down gracefully.")
	}

	if cerr := s.closeLogger(); cerr != nil {
		bootstrapLogger.Warn("close logger error", zap.Error(cerr))
	}
	return err
}
