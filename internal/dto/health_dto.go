package dto

import (
	"time"

	"github.com/haierkeys/fast-note-service/pkg/workerpool"
	"github.com/haierkeys/fast-note-service/pkg/writequeue"
)

// HealthDTO 健康检查结果
type HealthDTO struct {
	Status     string             `json:"status"`
	Database   string             `json:"database"`
	Version    string             `json:"version"`
	Clients    int                `json:"clients"`
	StartTime  time.Time          `json:"startTime"`
	Uptime     float64            `json:"uptime"` // 秒
	Runtime    RuntimeDTO         `json:"runtime"`
	Process    *ProcessDTO        `json:"process,omitempty"`
	Notify     workerpool.Metrics `json:"notify"`
	WriteQueue writequeue.Metrics `json:"writeQueue"`
}

// RuntimeDTO Go 运行时状态
type RuntimeDTO struct {
	NumGoroutine int    `json:"numGoroutine"`
	MemAlloc     uint64 `json:"memAlloc"`
	MemSys       uint64 `json:"memSys"`
	NumGC        uint32 `json:"numGc"`
}

// ProcessDTO 进程资源占用，取不到时为空
type ProcessDTO struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float32 `json:"memPercent"`
	RSS        uint64  `json:"rss"`
	NumThreads int32   `json:"numThreads"`
}
