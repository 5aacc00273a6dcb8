package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const (
	actorID    = "actor-1"
	otherID    = "other-1"
	assigneeID = "actor-1"
)

func buildTicket(status domain.TicketStatus, reporterMatch, assigned bool) *domain.Ticket {
	t := &domain.Ticket{
		ID:         "ticket-1",
		Status:     status,
		ReporterID: otherID,
	}
	if reporterMatch {
		t.ReporterID = actorID
	}
	if assigned {
		id := assigneeID
		t.AssigneeID = &id
	}
	return t
}

var allStatuses = []domain.TicketStatus{
	domain.TicketStatusOpen,
	domain.TicketStatusInProgress,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
}

var allRoles = []domain.Role{
	domain.RoleAdmin,
	domain.RoleManager,
	domain.RoleAgent,
	domain.RoleUser,
}

// expected encodes the access table: for each predicate, the allow decision
// as a function of (role, status, reporterMatch, assigned).
func expected(pred string, role domain.Role, status domain.TicketStatus, reporterMatch, assigned bool) bool {
	active := status == domain.TicketStatusOpen || status == domain.TicketStatusInProgress
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return pred != "reopen"
	case domain.RoleAgent:
		switch pred {
		case "view", "edit", "comment":
			return assigned || active
		case "close":
			return assigned
		case "reopen":
			return false
		}
	case domain.RoleUser:
		switch pred {
		case "view":
			return reporterMatch
		case "edit":
			return false
		case "close":
			return reporterMatch && active
		case "comment":
			return reporterMatch && status != domain.TicketStatusResolved
		case "reopen":
			return reporterMatch && status == domain.TicketStatusClosed
		}
	}
	return false
}

func TestAccessMatrix(t *testing.T) {
	predicates := map[string]func(Actor, *domain.Ticket) bool{
		"view":    CanView,
		"edit":    CanEdit,
		"close":   CanClose,
		"comment": CanComment,
		"reopen":  CanRequestReopen,
	}

	for name, pred := range predicates {
		for _, role := range allRoles {
			for _, status := range allStatuses {
				for _, reporterMatch := range []bool{true, false} {
					for _, assigned := range []bool{true, false} {
						label := fmt.Sprintf("%s/%s/%s/reporter=%v/assigned=%v",
							name, role, status, reporterMatch, assigned)
						ticket := buildTicket(status, reporterMatch, assigned)
						actor := Actor{ID: actorID, Role: role}
						want := expected(name, role, status, reporterMatch, assigned)
						assert.Equal(t, want, pred(actor, ticket), label)
					}
				}
			}
		}
	}
}

func TestUnknownRoleAlwaysDenied(t *testing.T) {
	actor := Actor{ID: actorID, Role: domain.Role("SUPERVISOR")}
	ticket := buildTicket(domain.TicketStatusOpen, true, true)

	assert.False(t, CanView(actor, ticket))
	assert.False(t, CanEdit(actor, ticket))
	assert.False(t, CanClose(actor, ticket))
	assert.False(t, CanComment(actor, ticket))
	assert.False(t, CanRequestReopen(actor, ticket))
	assert.False(t, CanDecideReopen(actor))
	assert.False(t, CanMarkInternal(actor))
}

func TestDecideReopenIsStaffManagementOnly(t *testing.T) {
	assert.True(t, CanDecideReopen(Actor{Role: domain.RoleAdmin}))
	assert.True(t, CanDecideReopen(Actor{Role: domain.RoleManager}))
	assert.False(t, CanDecideReopen(Actor{Role: domain.RoleAgent}))
	assert.False(t, CanDecideReopen(Actor{Role: domain.RoleUser}))
}

func TestRedactForViewer(t *testing.T) {
	author := "staff-1"
	comments := []domain.Comment{
		{ID: "c1", Body: "public answer", AuthorID: &author},
		{ID: "c2", Body: "secret diagnosis", AuthorID: &author, IsInternal: true},
	}

	t.Run("staff sees everything", func(t *testing.T) {
		got := RedactForViewer(Actor{Role: domain.RoleAgent}, comments)
		assert.Equal(t, "secret diagnosis", got[1].Body)
		assert.NotNil(t, got[1].AuthorID)
	})

	t.Run("non-staff sees placeholder, existence preserved", func(t *testing.T) {
		got := RedactForViewer(Actor{Role: domain.RoleUser}, comments)
		assert.Len(t, got, 2)
		assert.Equal(t, "public answer", got[0].Body)
		assert.Equal(t, RedactedBody, got[1].Body)
		assert.Nil(t, got[1].AuthorID)
		assert.Equal(t, "c2", got[1].ID)
	})

	t.Run("input slice untouched", func(t *testing.T) {
		_ = RedactForViewer(Actor{Role: domain.RoleUser}, comments)
		assert.Equal(t, "secret diagnosis", comments[1].Body)
	})
}
