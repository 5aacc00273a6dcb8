// Package notify defines the notification sink the core writes to. The sink
// is an injected dependency, never a process-wide singleton; the core
// enqueues and forgets, delivery is owned by the outbox worker.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Sink accepts notifications for later delivery. Implementations must not
// block on delivery; errors are the caller's to log, never to propagate.
type Sink interface {
	Enqueue(ctx context.Context, n domain.Notification) error
}

// LogSink is a fallback sink that only records the notification. Used when
// no Redis outbox is configured (tests, local development).
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates the fallback sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Enqueue logs the notification and drops it.
func (s *LogSink) Enqueue(_ context.Context, n domain.Notification) error {
	s.logger.Info("notification",
		zap.String("target_user_id", n.TargetUserID),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title),
		zap.String("ticket_id", n.TicketID))
	return nil
}
