package domain

import "time"

// NotificationType labels outbound notifications.
type NotificationType string

const (
	NotifyTicketAssigned  NotificationType = "TICKET_ASSIGNED"
	NotifyStatusChanged   NotificationType = "TICKET_STATUS_CHANGED"
	NotifyTicketEscalated NotificationType = "TICKET_ESCALATED"
	NotifyCommentAdded    NotificationType = "TICKET_COMMENT_ADDED"
	NotifyReopenRequested NotificationType = "REOPEN_REQUESTED"
	NotifyReopenDecided   NotificationType = "REOPEN_REQUEST_DECIDED"
	NotifySLABreached     NotificationType = "SLA_BREACHED"
)

// Notification is an outbound message for one user. The core enqueues and
// forgets; delivery is owned by the worker draining the outbox.
type Notification struct {
	ID           string           `json:"id"`
	TargetUserID string           `json:"target_user_id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	TicketID     string           `json:"ticket_id,omitempty"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"created_at"`
}
