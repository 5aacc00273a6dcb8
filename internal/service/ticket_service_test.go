package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testSLAConfig() config.SLAConfig {
	return config.SLAConfig{
		ForgiveOnClose:      true,
		DefaultTargetHours:  24,
		CriticalTargetHours: 4,
		HighTargetHours:     8,
		LowTargetHours:      48,
	}
}

type ticketFixture struct {
	service  *TicketService
	tickets  *memTicketRepo
	watchers *memWatcherRepo
	activity *memActivityRepo
	escs     *memEscalationRepo
	clock    *fakeClock
}

func newTicketFixture(t *testing.T, cfg config.SLAConfig) *ticketFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	tickets := newMemTicketRepo()
	watchers := newMemWatcherRepo()
	activity := newMemActivityRepo()
	escs := newMemEscalationRepo()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		TimeEntryRepo:  newMemTimeEntryRepo(),
		EscalationRepo: escs,
		ReopenRepo:     newMemReopenRepo(),
		WatcherRepo:    watchers,
		ActivityRepo:   activity,
		Logger:         zap.NewNop(),
		SLA:            cfg,
		Now:            clock.Now,
	})
	return &ticketFixture{service: svc, tickets: tickets, watchers: watchers, activity: activity, escs: escs, clock: clock}
}

func testReporter() *domain.User {
	companyID := "company-1"
	return &domain.User{ID: "user-1", Role: domain.RoleUser, CompanyID: &companyID, Active: true}
}

func (f *ticketFixture) createTicket(t *testing.T, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.Create(context.Background(), testReporter(), TicketCreateInput{
		Title:       "printer on fire",
		Description: "it is actually on fire",
		Priority:    priority,
		CompanyID:   "company-1",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketNumbering(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())

	first := f.createTicket(t, domain.TicketPriorityHigh)
	second := f.createTicket(t, domain.TicketPriorityHigh)

	assert.Equal(t, "TKT-000001", first.Number)
	assert.Equal(t, "TKT-000002", second.Number)
}

func TestCreateTicketNumberFallback(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	f.tickets.seqErr = assert.AnError

	ticket := f.createTicket(t, domain.TicketPriorityHigh)

	assert.True(t, strings.HasPrefix(ticket.Number, "TKT-T"), "got %s", ticket.Number)
}

func TestCreateTicketDefaults(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())

	ticket, err := f.service.Create(context.Background(), testReporter(), TicketCreateInput{
		Title:       "something broke",
		Description: "details",
		CompanyID:   "company-1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.CategoryGeneral, ticket.Category)
	assert.Equal(t, 24.0, ticket.SLA.TargetHours)
	assert.Equal(t, f.clock.Now(), ticket.SLA.StartTime)
}

func TestCreateTicketSLATargetPerPriority(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())

	critical := f.createTicket(t, domain.TicketPriorityCritical)
	low := f.createTicket(t, domain.TicketPriorityLow)

	assert.Equal(t, 4.0, critical.SLA.TargetHours)
	assert.Equal(t, 48.0, low.SLA.TargetHours)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())

	_, err := f.service.Create(context.Background(), testReporter(), TicketCreateInput{Title: "  ", Description: "x", CompanyID: "company-1"})
	assert.Error(t, err)

	inactive := testReporter()
	inactive.Active = false
	_, err = f.service.Create(context.Background(), inactive, TicketCreateInput{Title: "t", Description: "d", CompanyID: "company-1"})
	assert.Error(t, err)
}

func TestGetRecomputesSLAOnRead(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}

	fetched, err := f.service.Get(context.Background(), reporter, ticket.ID)
	require.NoError(t, err)
	assert.False(t, fetched.SLA.IsBreached)

	// 25h elapsed against a 24h target.
	f.clock.Advance(25 * time.Hour)
	fetched, err = f.service.Get(context.Background(), reporter, ticket.ID)
	require.NoError(t, err)
	assert.True(t, fetched.SLA.IsBreached)
}

func TestResolveForgivesBreachByDefault(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	f.clock.Advance(30 * time.Hour)
	status := domain.TicketStatusResolved
	updated, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Status: &status})
	require.NoError(t, err)

	assert.False(t, updated.SLA.IsBreached)
	require.NotNil(t, updated.SLA.EndTime)
	require.NotNil(t, updated.ResolvedAt)

	// Frozen: later reads keep the verdict even as time passes.
	f.clock.Advance(100 * time.Hour)
	fetched, err := f.service.Get(context.Background(), admin, ticket.ID)
	require.NoError(t, err)
	assert.False(t, fetched.SLA.IsBreached)
}

func TestResolveFreezesVerdictWithoutForgiveness(t *testing.T) {
	cfg := testSLAConfig()
	cfg.ForgiveOnClose = false
	f := newTicketFixture(t, cfg)
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	f.clock.Advance(30 * time.Hour)
	status := domain.TicketStatusResolved
	updated, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Status: &status})
	require.NoError(t, err)

	assert.True(t, updated.SLA.IsBreached)
}

func TestUpdateStatusGatedByClosePolicy(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	closed := domain.TicketStatusClosed

	// Reporter may close their own active ticket.
	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}
	updated, err := f.service.Update(context.Background(), reporter, ticket.ID, TicketUpdateInput{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	assert.NotNil(t, updated.ClosedAt)

	// An unassigned agent may not change status.
	ticket2 := f.createTicket(t, domain.TicketPriorityMedium)
	agent := policy.Actor{ID: "agent-9", Role: domain.RoleAgent}
	_, err = f.service.Update(context.Background(), agent, ticket2.ID, TicketUpdateInput{Status: &closed})
	assert.Error(t, err)
}

func TestUpdateFieldsForbiddenForReporter(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}

	high := domain.TicketPriorityHigh
	_, err := f.service.Update(context.Background(), reporter, ticket.ID, TicketUpdateInput{Priority: &high})
	assert.Error(t, err)
}

func TestClosedTicketOnlyReopensByAdmin(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	manager := policy.Actor{ID: "manager-1", Role: domain.RoleManager}

	closed := domain.TicketStatusClosed
	_, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Status: &closed})
	require.NoError(t, err)

	open := domain.TicketStatusOpen
	_, err = f.service.Update(context.Background(), manager, ticket.ID, TicketUpdateInput{Status: &open})
	assert.Error(t, err)

	updated, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Status: &open})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	assert.Nil(t, updated.ClosedAt)
	assert.Nil(t, updated.SLA.EndTime)
}

func TestUpdateVersionConflict(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	f.tickets.conflictOnce = true

	low := domain.TicketPriorityLow
	_, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Priority: &low})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestEscalationLevelMonotonic(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	manager := policy.Actor{ID: "manager-1", Role: domain.RoleManager}

	updated, err := f.service.Escalate(context.Background(), manager, ticket.ID, "agent-2", "no response")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.EscalationLevel)

	updated, err = f.service.Escalate(context.Background(), manager, ticket.ID, "manager-2", "still no response")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.EscalationLevel)

	history, err := f.escs.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}
	_, err = f.service.Escalate(context.Background(), reporter, ticket.ID, "agent-2", "hurry")
	assert.Error(t, err)
}

func TestListScopesByRole(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	f.createTicket(t, domain.TicketPriorityMedium)

	otherCompany := "company-2"
	other := &domain.User{ID: "user-2", Role: domain.RoleUser, CompanyID: &otherCompany, Active: true}
	_, err := f.service.Create(context.Background(), other, TicketCreateInput{
		Title: "other tenant", Description: "d", CompanyID: otherCompany,
	})
	require.NoError(t, err)

	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}
	mine, err := f.service.List(context.Background(), reporter, nil, TicketListInput{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	companyID := "company-1"
	agent := policy.Actor{ID: "agent-1", Role: domain.RoleAgent}
	scoped, err := f.service.List(context.Background(), agent, &companyID, TicketListInput{})
	require.NoError(t, err)
	assert.Len(t, scoped, 1)
	assert.Equal(t, companyID, scoped[0].CompanyID)

	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	all, err := f.service.List(context.Background(), admin, nil, TicketListInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListMatchesViewRuleForUnassignedAgents(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	open := f.createTicket(t, domain.TicketPriorityMedium)
	unassignedClosed := f.createTicket(t, domain.TicketPriorityMedium)
	assignedClosed := f.createTicket(t, domain.TicketPriorityMedium)

	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	agentID := "agent-1"
	_, err := f.service.Update(context.Background(), admin, assignedClosed.ID, TicketUpdateInput{AssigneeID: &agentID})
	require.NoError(t, err)

	closed := domain.TicketStatusClosed
	for _, id := range []string{unassignedClosed.ID, assignedClosed.ID} {
		_, err := f.service.Update(context.Background(), admin, id, TicketUpdateInput{Status: &closed})
		require.NoError(t, err)
	}

	companyID := "company-1"
	agent := policy.Actor{ID: agentID, Role: domain.RoleAgent}
	listed, err := f.service.List(context.Background(), agent, &companyID, TicketListInput{})
	require.NoError(t, err)

	ids := make([]string, 0, len(listed))
	for _, ticket := range listed {
		ids = append(ids, ticket.ID)
	}
	assert.ElementsMatch(t, []string{open.ID, assignedClosed.ID}, ids)

	// Get and List agree on the hidden ticket.
	_, err = f.service.Get(context.Background(), agent, unassignedClosed.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestConflictedUpdateLeavesNoAuditTrail(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	before := f.activity.kinds(ticket.ID)

	f.tickets.conflictOnce = true
	low := domain.TicketPriorityLow
	resolved := domain.TicketStatusResolved
	_, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Priority: &low, Status: &resolved})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	assert.Equal(t, before, f.activity.kinds(ticket.ID))
}

func TestConflictedEscalationLeavesNoHistory(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	manager := policy.Actor{ID: "manager-1", Role: domain.RoleManager}

	f.tickets.conflictOnce = true
	_, err := f.service.Escalate(context.Background(), manager, ticket.ID, "agent-2", "no response")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	history, err := f.escs.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotContains(t, f.activity.kinds(ticket.ID), domain.ActivityEscalated)
}

func TestWatchersSelfServiceOnly(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}

	require.NoError(t, f.service.AddWatcher(context.Background(), reporter, ticket.ID, "user-1"))
	err := f.service.AddWatcher(context.Background(), reporter, ticket.ID, "user-7")
	assert.Error(t, err)

	ids, err := f.watchers.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, ids)

	require.NoError(t, f.service.RemoveWatcher(context.Background(), reporter, ticket.ID, "user-1"))
}

func TestActivityFilteredForCustomers(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)
	admin := policy.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	high := domain.TicketPriorityHigh
	_, err := f.service.Update(context.Background(), admin, ticket.ID, TicketUpdateInput{Priority: &high})
	require.NoError(t, err)

	reporter := policy.Actor{ID: "user-1", Role: domain.RoleUser}
	visible, err := f.service.ListActivity(context.Background(), reporter, ticket.ID, 50, 0)
	require.NoError(t, err)
	for _, entry := range visible {
		assert.NotEqual(t, domain.ActivityPriorityChanged, entry.Kind)
	}

	staffView, err := f.service.ListActivity(context.Background(), admin, ticket.ID, 50, 0)
	require.NoError(t, err)
	assert.Greater(t, len(staffView), len(visible))
}

func TestDeleteRestrictedToAdminAndManager(t *testing.T) {
	f := newTicketFixture(t, testSLAConfig())
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	agent := policy.Actor{ID: "agent-1", Role: domain.RoleAgent}
	assert.Error(t, f.service.Delete(context.Background(), agent, ticket.ID))

	manager := policy.Actor{ID: "manager-1", Role: domain.RoleManager}
	assert.NoError(t, f.service.Delete(context.Background(), manager, ticket.ID))

	_, err := f.tickets.GetByID(context.Background(), ticket.ID)
	assert.Error(t, err)
}
