package service

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/dto"
	"github.com/haierkeys/fast-note-service/internal/metrics"
	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/logger"

	"go.uber.org/zap"
)

// NoteEventName 实时通道上的事件名
const NoteEventName = "noteEvent"

// ChangeNotifier publishes note changes to real-time subscribers.
// Publish never blocks on delivery and never reports failure to the caller.
type ChangeNotifier interface {
	Publish(ctx context.Context, kind domain.NoteEventKind, note *dto.NoteDTO)
}

// Subscribers is the registry of connected real-time clients.
type Subscribers interface {
	Broadcast(payload []byte) int
	BroadcastToUser(uid int64, payload []byte) int
}

// AsyncRunner queues a job without waiting for it, e.g. *workerpool.Pool.
type AsyncRunner interface {
	SubmitAsync(ctx context.Context, fn func(context.Context) error) error
}

type noteNotifier struct {
	subs   Subscribers
	runner AsyncRunner
	scope  string
	logger *zap.Logger
}

// NewChangeNotifier builds the notifier. scope is NotifyScopeAll or NotifyScopeOwner.
func NewChangeNotifier(subs Subscribers, runner AsyncRunner, scope string, lg *zap.Logger) ChangeNotifier {
	if lg == nil {
		lg = zap.NewNop()
	}
	if scope != NotifyScopeOwner {
		scope = NotifyScopeAll
	}
	return &noteNotifier{subs: subs, runner: runner, scope: scope, logger: lg}
}

func (n *noteNotifier) Publish(ctx context.Context, kind domain.NoteEventKind, note *dto.NoteDTO) {
	event := string(kind)
	if n.subs == nil || note == nil {
		metrics.NoteEvents.WithLabelValues(event, metrics.OutcomeDropped).Inc()
		return
	}

	payload, err := app.EncodeFrame(NoteEventName, dto.NoteEventDTO{Event: event, Data: note})
	if err != nil {
		metrics.NoteEvents.WithLabelValues(event, metrics.OutcomeFailed).Inc()
		n.logger.Warn("note event encode failed", zap.String(logger.FieldEvent, event), zap.Error(err))
		return
	}

	owner := note.Owner
	deliver := func(context.Context) error {
		var delivered int
		if n.scope == NotifyScopeOwner {
			delivered = n.subs.BroadcastToUser(owner, payload)
		} else {
			delivered = n.subs.Broadcast(payload)
		}
		metrics.NoteEvents.WithLabelValues(event, metrics.OutcomeSent).Inc()
		metrics.NoteEventDeliveries.Add(float64(delivered))
		n.logger.Debug("note event broadcast",
			zap.String(logger.FieldEvent, event),
			zap.Int64(logger.FieldNoteID, note.ID),
			zap.Int("delivered", delivered))
		return nil
	}

	if n.runner == nil {
		_ = deliver(ctx)
		return
	}
	// 请求结束后 ctx 会被取消，推送任务使用独立的 context
	if err := n.runner.SubmitAsync(context.Background(), deliver); err != nil {
		metrics.NoteEvents.WithLabelValues(event, metrics.OutcomeDropped).Inc()
		n.logger.Warn("note event dropped",
			zap.String(logger.FieldEvent, event),
			zap.Int64(logger.FieldNoteID, note.ID),
			zap.Error(err))
	}
}
