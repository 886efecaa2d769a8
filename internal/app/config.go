// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/fast-note-service/internal/config"
	"github.com/haierkeys/fast-note-service/pkg/limiter"
	"github.com/haierkeys/fast-note-service/pkg/logger"
	"github.com/haierkeys/fast-note-service/pkg/util"
	"github.com/haierkeys/fast-note-service/pkg/workerpool"
	"github.com/haierkeys/fast-note-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string                `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig          `yaml:"server"`
	Log      LogConfig             `yaml:"log"`
	Database config.DatabaseConfig `yaml:"database"`
	Security SecurityConfig        `yaml:"security"`
	User     UserConfig            `yaml:"user"`
	App      AppSettings           `yaml:"app"`
	Note     NoteConfig            `yaml:"note"`
	Notify   NotifyConfig          `yaml:"notify"`
	Limiter  LimiterConfig         `yaml:"limiter"`
	Tracer   TracerConfig          `yaml:"tracer"`
	Task     TaskConfig            `yaml:"task"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到控制台
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式 debug / release / test
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址，为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"fast-note-Auth-Token"`
	// TokenExpiry Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
	TokenExpiry string `yaml:"token-expiry" default:"1h"`
	Issuer      string `yaml:"issuer" default:"fast-note-service"`
}

// UserConfig 用户配置
type UserConfig struct {
	// RegisterIsEnable 注册是否启用
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`

	// 通知推送队列大小，推送由单个 worker 按提交顺序执行
	NotifyQueueSize int `yaml:"notify-queue-size" default:"1024"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// NoteConfig 笔记配置
type NoteConfig struct {
	// StrictRevision 更新时校验 revision，并发修改返回 409
	StrictRevision bool `yaml:"strict-revision" default:"false"`
	// HistoryDiff 历史接口是否允许返回差异
	HistoryDiff bool `yaml:"history-diff" default:"true"`
}

// NotifyConfig 实时推送配置
type NotifyConfig struct {
	// Scope all: 所有连接；owner: 仅笔记所有者已认证的连接
	Scope string `yaml:"scope" default:"all"`
}

// LimiterConfig 限流配置，按客户端 IP 计算
type LimiterConfig struct {
	Enabled      bool   `yaml:"enabled" default:"true"`
	FillInterval string `yaml:"fill-interval" default:"15m"`
	Capacity     int64  `yaml:"capacity" default:"100"`
	// AuthFillInterval / AuthCapacity 登录注册接口的全局限流
	AuthFillInterval string `yaml:"auth-fill-interval" default:"1s"`
	AuthCapacity     int64  `yaml:"auth-capacity" default:"10"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string       `yaml:"header" default:"X-Trace-ID"`
	Jaeger JaegerConfig `yaml:"jaeger"`
}

// JaegerConfig jaeger 上报配置
type JaegerConfig struct {
	Enabled     bool    `yaml:"enabled" default:"false"`
	ServiceName string  `yaml:"service-name" default:"fast-note-service"`
	AgentHost   string  `yaml:"agent-host" default:"127.0.0.1:6831"`
	SampleRate  float64 `yaml:"sample-rate" default:"1"`
}

// TaskConfig 定时任务配置，cron 表达式，为空表示关闭
type TaskConfig struct {
	DBMaintenance string `yaml:"db-maintenance" default:"@daily"`
	LimiterPrune  string `yaml:"limiter-prune" default:"@every 30m"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置并填充默认值
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "re-set default config failed")
	}

	if _, err := util.ParseDuration(c.Security.TokenExpiry); err != nil {
		return nil, errors.Wrap(err, "security.token-expiry")
	}
	return c, nil
}

// LoggerConfig 转换为 logger.Config
func (c *AppConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetNotifyPoolConfig 通知推送池配置
// 只有一个 worker，同一进程内的事件按提交顺序送达
func (c *AppConfig) GetNotifyPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()
	cfg.MaxWorkers = 1

	if c.App.NotifyQueueSize > 0 {
		cfg.QueueSize = c.App.NotifyQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil && timeout > 0 {
		cfg.WriteTimeout = timeout
	}
	if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil && idleTime > 0 {
		cfg.IdleTimeout = idleTime
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil && expiry > 0 {
		return expiry
	}
	return time.Hour
}

// GetContextTimeout 请求上下文超时
func (c *AppConfig) GetContextTimeout() time.Duration {
	return time.Duration(c.App.DefaultContextTimeout) * time.Second
}

// GetIPLimiterRule 每个客户端 IP 的令牌桶
func (c *AppConfig) GetIPLimiterRule() limiter.BucketRule {
	interval, err := util.ParseDuration(c.Limiter.FillInterval)
	if err != nil || interval <= 0 {
		interval = 15 * time.Minute
	}
	return limiter.BucketRule{FillInterval: interval, Capacity: c.Limiter.Capacity, Quantum: c.Limiter.Capacity}
}

// GetAuthLimiterRule 登录注册接口的令牌桶
func (c *AppConfig) GetAuthLimiterRule() limiter.BucketRule {
	interval, err := util.ParseDuration(c.Limiter.AuthFillInterval)
	if err != nil || interval <= 0 {
		interval = time.Second
	}
	return limiter.BucketRule{Key: "/api/auth", FillInterval: interval, Capacity: c.Limiter.AuthCapacity, Quantum: c.Limiter.AuthCapacity}
}
