package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// CanView: admin/manager always; agent when assigned or the ticket is active;
// reporter for their own tickets regardless of status.
func CanView(actor Actor, t *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleAgent:
		return actor.isAssignee(t) || t.Status.IsActive()
	case domain.RoleUser:
		return actor.isReporter(t)
	default:
		return false
	}
}
