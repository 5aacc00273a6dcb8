package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// CanComment: admin/manager always; agent when assigned or the ticket is
// active; reporter on their own ticket unless it sits in resolved.
func CanComment(actor Actor, t *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleAgent:
		return actor.isAssignee(t) || t.Status.IsActive()
	case domain.RoleUser:
		return actor.isReporter(t) && t.Status != domain.TicketStatusResolved
	default:
		return false
	}
}

// CanMarkInternal: only staff may author internal comments.
func CanMarkInternal(actor Actor) bool {
	return actor.Role.IsStaff()
}
