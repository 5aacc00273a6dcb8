package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// CanEdit covers priority/category/assignee changes: admin/manager always;
// agent when assigned or the ticket is active; reporters never edit.
func CanEdit(actor Actor, t *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleAgent:
		return actor.isAssignee(t) || t.Status.IsActive()
	case domain.RoleUser:
		return false
	default:
		return false
	}
}
