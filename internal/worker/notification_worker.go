package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// NotificationWorker drains the Redis outbox and persists notifications for
// later retrieval. Delivery channels (email, webhooks) would hang off the
// same loop.
type NotificationWorker struct {
	outbox        *notify.RedisOutbox
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(outbox *notify.RedisOutbox, notifications repository.NotificationRepository, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{
		outbox:        outbox,
		notifications: notifications,
		logger:        logger,
	}
}

// Run blocks draining the outbox until the context is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped")
			return
		default:
		}

		notification, err := w.outbox.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("outbox dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if notification == nil {
			continue
		}

		if err := w.notifications.Create(ctx, notification); err != nil {
			w.logger.Error("failed to persist notification",
				zap.String("target_user_id", notification.TargetUserID), zap.Error(err))
			continue
		}
		w.logger.Debug("notification delivered",
			zap.String("target_user_id", notification.TargetUserID),
			zap.String("type", string(notification.Type)))
	}
}
