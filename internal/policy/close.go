package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// CanClose covers status transitions: admin/manager always; agent only when
// assigned; reporter for their own ticket while it is still open/in_progress.
func CanClose(actor Actor, t *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleAgent:
		return actor.isAssignee(t)
	case domain.RoleUser:
		return actor.isReporter(t) && t.Status.IsActive()
	default:
		return false
	}
}
