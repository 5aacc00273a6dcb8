package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
)

const sweepBatchSize = 200

// SLAWorker periodically scans active tickets and notifies assignees of
// observed breaches. The sweep is a read-side convenience: the breach flag
// callers see is always recomputed on read, never taken from this loop.
type SLAWorker struct {
	tickets repository.TicketRepository
	sink    notify.Sink
	metrics *observability.Metrics
	logger  *zap.Logger
	cfg     config.SLAConfig
	cron    *cron.Cron

	// cron runs each firing in its own goroutine, so a slow sweep can
	// overlap the next one; the map is shared between them.
	mu       sync.Mutex
	notified map[string]struct{}
}

// NewSLAWorker constructs the worker.
func NewSLAWorker(tickets repository.TicketRepository, sink notify.Sink, metrics *observability.Metrics, logger *zap.Logger, cfg config.SLAConfig) *SLAWorker {
	return &SLAWorker{
		tickets:  tickets,
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(),
		notified: make(map[string]struct{}),
	}
}

// Start schedules the sweep.
func (w *SLAWorker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.cfg.SweepIntervalSpec, func() {
		w.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("sla sweep scheduled", zap.String("interval", w.cfg.SweepIntervalSpec))
	return nil
}

// Stop halts the scheduler.
func (w *SLAWorker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Sweep evaluates active tickets whose SLA window could have elapsed and
// notifies assignees once per ticket per process lifetime.
func (w *SLAWorker) Sweep(ctx context.Context) {
	now := time.Now()
	// Anything started after now-minTarget cannot have breached yet.
	cutoff := now.Add(-time.Duration(minTarget(w.cfg)) * time.Hour)
	tickets, err := w.tickets.ListActiveStartedBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		w.logger.Warn("sla sweep query failed", zap.Error(err))
		return
	}

	breached := 0
	for i := range tickets {
		ticket := &tickets[i]
		sla := ticket.SLA.Evaluate(ticket.Status, now)
		if !sla.IsBreached {
			continue
		}
		breached++
		if !w.markNotified(ticket.ID) {
			continue
		}
		w.metrics.RecordSLABreach()

		if ticket.AssigneeID == nil {
			continue
		}
		notification := domain.Notification{
			TargetUserID: *ticket.AssigneeID,
			Type:         domain.NotifySLABreached,
			Title:        fmt.Sprintf("Ticket %s breached its SLA", ticket.Number),
			Message:      fmt.Sprintf("target %.0fh exceeded", ticket.SLA.TargetHours),
			TicketID:     ticket.ID,
		}
		if err := w.sink.Enqueue(ctx, notification); err != nil {
			w.logger.Warn("failed to enqueue breach notification",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	if breached > 0 {
		w.logger.Info("sla sweep complete", zap.Int("scanned", len(tickets)), zap.Int("breached", breached))
	}
}

// markNotified claims the ticket for notification, returning false when an
// earlier sweep already did.
func (w *SLAWorker) markNotified(ticketID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.notified[ticketID]; seen {
		return false
	}
	w.notified[ticketID] = struct{}{}
	return true
}

func minTarget(cfg config.SLAConfig) float64 {
	min := cfg.DefaultTargetHours
	for _, t := range []float64{cfg.CriticalTargetHours, cfg.HighTargetHours, cfg.LowTargetHours} {
		if t > 0 && t < min {
			min = t
		}
	}
	return min
}
