package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
)

// NotificationService translates domain events into notifications and hands
// them to the sink. Enqueue failures are logged and dropped; notification
// delivery never vetoes the operation that produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       notify.Sink
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sink notify.Sink, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleEscalated)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventReopenRequested, n.handleReopenRequested)
	n.dispatcher.Subscribe(events.EventReopenDecided, n.handleReopenDecided)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.AssigneeID == nil {
		return nil
	}
	n.enqueue(ctx, domain.Notification{
		TargetUserID: *payload.AssigneeID,
		Type:         domain.NotifyTicketAssigned,
		Title:        fmt.Sprintf("Ticket %s assigned to you", payload.Number),
		Message:      payload.Title,
		TicketID:     event.TicketID,
	})
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	n.enqueue(ctx, domain.Notification{
		TargetUserID: payload.AssigneeID,
		Type:         domain.NotifyTicketAssigned,
		Title:        fmt.Sprintf("Ticket %s assigned to you", payload.Number),
		Message:      payload.Title,
		TicketID:     event.TicketID,
	})
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	targets := map[string]struct{}{payload.ReporterID: {}}
	if payload.AssigneeID != nil {
		targets[*payload.AssigneeID] = struct{}{}
	}
	for _, watcher := range payload.WatcherIDs {
		targets[watcher] = struct{}{}
	}
	delete(targets, event.ActorID)

	for target := range targets {
		n.enqueue(ctx, domain.Notification{
			TargetUserID: target,
			Type:         domain.NotifyStatusChanged,
			Title:        fmt.Sprintf("Ticket status is now %s", payload.NewStatus),
			Message:      payload.Detail,
			TicketID:     event.TicketID,
		})
	}
	return nil
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return nil
	}
	n.enqueue(ctx, domain.Notification{
		TargetUserID: payload.EscalatedTo,
		Type:         domain.NotifyTicketEscalated,
		Title:        fmt.Sprintf("Ticket %s escalated to you (level %d)", payload.Number, payload.Level),
		Message:      payload.Reason,
		TicketID:     event.TicketID,
	})
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return nil
	}
	// Internal notes never notify the reporter.
	targets := map[string]struct{}{}
	if !payload.Internal {
		targets[payload.ReporterID] = struct{}{}
	}
	if payload.AssigneeID != nil {
		targets[*payload.AssigneeID] = struct{}{}
	}
	delete(targets, event.ActorID)

	for target := range targets {
		n.enqueue(ctx, domain.Notification{
			TargetUserID: target,
			Type:         domain.NotifyCommentAdded,
			Title:        "New comment on your ticket",
			Message:      payload.Preview,
			TicketID:     event.TicketID,
		})
	}
	return nil
}

// handleReopenRequested alerts the staff member who handled the ticket that
// the reporter wants it reopened. Unassigned tickets surface to reviewers
// through the pending-request list instead.
func (n *NotificationService) handleReopenRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReopenRequestedPayload)
	if !ok || payload.AssigneeID == nil || *payload.AssigneeID == event.ActorID {
		return nil
	}
	n.enqueue(ctx, domain.Notification{
		TargetUserID: *payload.AssigneeID,
		Type:         domain.NotifyReopenRequested,
		Title:        fmt.Sprintf("Reopen requested for ticket %s", payload.Number),
		Message:      payload.Reason,
		TicketID:     event.TicketID,
	})
	return nil
}

func (n *NotificationService) handleReopenDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReopenDecidedPayload)
	if !ok {
		return nil
	}
	n.enqueue(ctx, domain.Notification{
		TargetUserID: payload.RequesterID,
		Type:         domain.NotifyReopenDecided,
		Title:        fmt.Sprintf("Reopen request for %s was %s", payload.Number, payload.Decision),
		Message:      payload.ReviewNote,
		TicketID:     event.TicketID,
	})
	return nil
}

func (n *NotificationService) enqueue(ctx context.Context, notification domain.Notification) {
	if err := n.sink.Enqueue(ctx, notification); err != nil {
		n.logger.Warn("failed to enqueue notification",
			zap.String("target_user_id", notification.TargetUserID),
			zap.String("type", string(notification.Type)),
			zap.Error(err))
	}
}
