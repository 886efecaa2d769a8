package api_router

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口，包括数据库连接、运行时与后台队列状态
// GET /api/health
func (h *HealthHandler) Check(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	res := dto.HealthDTO{
		Status:    "healthy",
		Database:  "connected",
		Version:   h.App.Version().Version,
		Clients:   h.App.Hub.ClientCount(),
		StartTime: h.App.StartTime,
		Uptime:    time.Since(h.App.StartTime).Seconds(),
		Runtime: dto.RuntimeDTO{
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     m.Alloc,
			MemSys:       m.Sys,
			NumGC:        m.NumGC,
		},
		Notify:     h.App.WorkerPool().GetMetrics(),
		WriteQueue: h.App.WriteQueueManager().GetMetrics(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	res.Process = processStats(ctx)

	if h.App.IsShuttingDown() {
		res.Status = "shutting_down"
		pkgapp.NewResponse(c).ToResponse(code.ErrorServerBusy.WithData(res))
		return
	}

	// 检查数据库连接
	if err := h.App.Dao.Ping(ctx); err != nil {
		h.logError(ctx, "HealthHandler.Check", err)
		res.Status = "unhealthy"
		res.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorServerBusy.WithData(res))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}

// processStats 当前进程的资源占用，平台不支持时返回 nil
func processStats(ctx context.Context) *dto.ProcessDTO {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil
	}
	stats := &dto.ProcessDTO{PID: p.Pid}
	stats.CPUPercent, _ = p.CPUPercentWithContext(ctx)
	stats.MemPercent, _ = p.MemoryPercentWithContext(ctx)
	stats.NumThreads, _ = p.NumThreadsWithContext(ctx)
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
		stats.RSS = mi.RSS
	}
	return stats
}

// Expvar 导出系统运行时指标
func Expvar(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	first := true
	report := func(key string, value interface{}) {
		if !first {
			fmt.Fprintf(c.Writer, ",\n")
		}
		first = false
		if str, ok := value.(string); ok {
			fmt.Fprintf(c.Writer, "%q: %q", key, str)
		} else {
			fmt.Fprintf(c.Writer, "%q: %v", key, value)
		}
	}

	fmt.Fprintf(c.Writer, "{\n")
	expvar.Do(func(kv expvar.KeyValue) {
		report(kv.Key, kv.Value)
	})
	fmt.Fprintf(c.Writer, "\n}\n")
}
