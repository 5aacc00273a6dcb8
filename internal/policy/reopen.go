package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// CanRequestReopen: reporters only, and only once the ticket is closed.
// Staff do not request reopens; admins and managers decide them instead
// (see CanDecideReopen).
func CanRequestReopen(actor Actor, t *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleAgent:
		return false
	case domain.RoleUser:
		return actor.isReporter(t) && t.Status == domain.TicketStatusClosed
	default:
		return false
	}
}

// CanDecideReopen: approving or rejecting a reopen request is reserved for
// admins and managers.
func CanDecideReopen(actor Actor) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleAgent, domain.RoleUser:
		return false
	default:
		return false
	}
}
