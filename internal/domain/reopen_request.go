package domain

import "time"

// ReopenStatus enumerates the nested request state machine.
type ReopenStatus string

const (
	ReopenPending  ReopenStatus = "PENDING"
	ReopenApproved ReopenStatus = "APPROVED"
	ReopenRejected ReopenStatus = "REJECTED"
)

// ReopenRequest is a customer-initiated, staff-reviewed request to unlock a
// closed ticket. Status moves pending -> {approved, rejected} exactly once.
type ReopenRequest struct {
	ID          string
	TicketID    string
	RequesterID string
	Reason      string
	Status      ReopenStatus
	ReviewerID  *string
	ReviewNote  *string
	RequestedAt time.Time
	ReviewedAt  *time.Time
}

// Decided reports whether the request has already been reviewed.
func (r *ReopenRequest) Decided() bool {
	return r.Status != ReopenPending
}
