package task

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/app"

	"go.uber.org/zap"
)

// LimiterPruneTask 清理已回满的客户端令牌桶，防止 IP 表无限增长
type LimiterPruneTask struct {
	app  *app.App
	spec string
}

func (t *LimiterPruneTask) Name() string {
	return "LimiterPrune"
}

func (t *LimiterPruneTask) Spec() string {
	return t.spec
}

func (t *LimiterPruneTask) Run(ctx context.Context) error {
	removed := t.app.IPLimiter.Prune()
	t.app.Logger().Debug("limiter buckets pruned", zap.Int("removed", removed))
	return nil
}

func NewLimiterPruneTask(appContainer *app.App) (Task, error) {
	cfg := appContainer.Config()
	if !cfg.Limiter.Enabled || cfg.Task.LimiterPrune == "" || appContainer.IPLimiter == nil {
		return nil, nil
	}
	if _, err := ParseSpec(cfg.Task.LimiterPrune); err != nil {
		return nil, err
	}
	return &LimiterPruneTask{app: appContainer, spec: cfg.Task.LimiterPrune}, nil
}

func init() {
	RegisterWithApp(NewLimiterPruneTask)
}
