package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     domain.TicketCategory `json:"category"`
	CompanyID    string                `json:"company_id"`
	AssigneeID   *string               `json:"assignee_id"`
	Tags         []string              `json:"tags"`
	CustomFields map[string]string     `json:"custom_fields"`
}

// UpdateTicketRequest payload; omitted fields stay unchanged. An empty
// assignee_id string clears the assignment.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status"`
	Priority   *domain.TicketPriority `json:"priority"`
	Category   *domain.TicketCategory `json:"category"`
	AssigneeID *string                `json:"assignee_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	EscalateTo string `json:"escalate_to"`
	Reason     string `json:"reason"`
}

// AddWatcherRequest payload.
type AddWatcherRequest struct {
	UserID string `json:"user_id"`
}

// StartTimeRequest payload.
type StartTimeRequest struct {
	Description string `json:"description"`
}

// ManualTimeRequest payload.
type ManualTimeRequest struct {
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// ReopenRequestPayload payload.
type ReopenRequestPayload struct {
	Reason string `json:"reason"`
}

// ReopenDecisionRequest payload.
type ReopenDecisionRequest struct {
	Note string `json:"note"`
}

// SLAResponse is the derived SLA view.
type SLAResponse struct {
	TargetHours float64    `json:"target_hours"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	IsBreached  bool       `json:"is_breached"`
}

// TimeEntryResponse represents one tracked-work entry.
type TimeEntryResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Description     string     `json:"description"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
}

// EscalationResponse represents one escalation-history record.
type EscalationResponse struct {
	Level       int       `json:"level"`
	EscalatedBy string    `json:"escalated_by"`
	EscalatedTo string    `json:"escalated_to"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReopenRequestResponse represents one reopen request.
type ReopenRequestResponse struct {
	ID          string              `json:"id"`
	RequesterID string              `json:"requester_id"`
	Reason      string              `json:"reason"`
	Status      domain.ReopenStatus `json:"status"`
	ReviewerID  *string             `json:"reviewer_id,omitempty"`
	ReviewNote  *string             `json:"review_note,omitempty"`
	RequestedAt time.Time           `json:"requested_at"`
	ReviewedAt  *time.Time          `json:"reviewed_at,omitempty"`
}

// ActivityResponse represents one audit entry.
type ActivityResponse struct {
	ID        string              `json:"id"`
	ActorID   *string             `json:"actor_id,omitempty"`
	Kind      domain.ActivityKind `json:"kind"`
	Detail    string              `json:"detail"`
	CreatedAt time.Time           `json:"created_at"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string                `json:"id"`
	Number          string                `json:"number"`
	Title           string                `json:"title"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Category        domain.TicketCategory `json:"category"`
	CompanyID       string                `json:"company_id"`
	ReporterID      string                `json:"reporter_id"`
	AssigneeID      *string               `json:"assignee_id,omitempty"`
	EscalationLevel int                   `json:"escalation_level"`
	SLA             SLAResponse           `json:"sla"`
	Tags            []string              `json:"tags,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description    string                  `json:"description"`
	CustomFields   map[string]string       `json:"custom_fields,omitempty"`
	ActualMinutes  int                     `json:"actual_minutes"`
	EscalatedTo    *string                 `json:"escalated_to,omitempty"`
	WatcherIDs     []string                `json:"watcher_ids,omitempty"`
	TimeEntries    []TimeEntryResponse     `json:"time_entries,omitempty"`
	Escalations    []EscalationResponse    `json:"escalations,omitempty"`
	ReopenRequests []ReopenRequestResponse `json:"reopen_requests,omitempty"`
	Activity       []ActivityResponse      `json:"activity,omitempty"`
	ResolvedAt     *time.Time              `json:"resolved_at,omitempty"`
	ClosedAt       *time.Time              `json:"closed_at,omitempty"`
}
