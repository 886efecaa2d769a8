// Package metrics 定义 Prometheus 指标，由私有端口的 /metrics 暴露
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fast_note"

var (
	// HTTPRequests counts finished requests by route template, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// NoteEvents counts change notifications by event kind and outcome (sent, dropped, failed).
	NoteEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "note_events_total",
		Help:      "Note change notifications by event kind and outcome.",
	}, []string{"event", "outcome"})

	// NoteEventDeliveries 实际送达的连接数
	NoteEventDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "note_event_deliveries_total",
		Help:      "Websocket frames written for note change notifications.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})

	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_runs_total",
		Help:      "Scheduled task runs by task and result.",
	}, []string{"task", "result"})
)

const (
	OutcomeSent    = "sent"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

var clientCounter atomic.Value // func() int

// WSClients reports the size of the current websocket subscriber registry.
var WSClients = promauto.NewGaugeFunc(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "ws_clients",
	Help:      "Connected real-time subscribers.",
}, func() float64 {
	if f, ok := clientCounter.Load().(func() int); ok && f != nil {
		return float64(f())
	}
	return 0
})

// SetClientCounter points WSClients at the live registry. A reload replaces it.
func SetClientCounter(f func() int) {
	clientCounter.Store(f)
}
