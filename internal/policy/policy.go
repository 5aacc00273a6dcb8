// Package policy holds the ticket access-control predicates. Each predicate
// is a pure function of (actor, ticket) with no I/O, matched exhaustively
// over the closed role set so a typo'd role can never silently allow.
package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// Actor is the authenticated caller as seen by the predicates.
type Actor struct {
	ID   string
	Role domain.Role
}

func (a Actor) isReporter(t *domain.Ticket) bool {
	return t.ReporterID == a.ID
}

func (a Actor) isAssignee(t *domain.Ticket) bool {
	return t.IsAssignee(a.ID)
}
