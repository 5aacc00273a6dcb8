package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventReopenRequested     EventType = "reopen_requested"
	EventReopenDecided       EventType = "reopen_decided"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	ActorRole domain.Role `json:"actor_role"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number     string                `json:"number"`
	CompanyID  string                `json:"company_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
	AssigneeID *string               `json:"assignee_id,omitempty"`
	ReporterID string                `json:"reporter_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	Detail     string              `json:"detail,omitempty"`
	ReporterID string              `json:"reporter_id"`
	AssigneeID *string             `json:"assignee_id,omitempty"`
	WatcherIDs []string            `json:"watcher_ids,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	Number     string `json:"number"`
	Title      string `json:"title"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Level       int    `json:"level"`
	EscalatedTo string `json:"escalated_to"`
	Reason      string `json:"reason"`
	Number      string `json:"number"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID  string   `json:"comment_id"`
	AuthorID   *string  `json:"author_id,omitempty"`
	Internal   bool     `json:"internal"`
	Preview    string   `json:"preview"`
	ReporterID string   `json:"reporter_id"`
	AssigneeID *string  `json:"assignee_id,omitempty"`
	WatcherIDs []string `json:"watcher_ids,omitempty"`
}

// ReopenRequestedPayload payload.
type ReopenRequestedPayload struct {
	RequestID   string  `json:"request_id"`
	RequesterID string  `json:"requester_id"`
	Reason      string  `json:"reason"`
	Number      string  `json:"number"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
}

// ReopenDecidedPayload payload.
type ReopenDecidedPayload struct {
	RequestID   string              `json:"request_id"`
	RequesterID string              `json:"requester_id"`
	Decision    domain.ReopenStatus `json:"decision"`
	ReviewNote  string              `json:"review_note,omitempty"`
	Number      string              `json:"number"`
}
