package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"

	"go.uber.org/zap"
)

// TicketService coordinates the ticket lifecycle: creation with sequence
// numbering, policy-gated updates, escalation, watchers and deletion.
type TicketService struct {
	tickets     repository.TicketRepository
	timeEntries repository.TimeEntryRepository
	escalations repository.EscalationRepository
	reopens     repository.ReopenRequestRepository
	watchers    repository.WatcherRepository
	activity    repository.ActivityRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	slaCfg      config.SLAConfig
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	TimeEntryRepo  repository.TimeEntryRepository
	EscalationRepo repository.EscalationRepository
	ReopenRepo     repository.ReopenRequestRepository
	WatcherRepo    repository.WatcherRepository
	ActivityRepo   repository.ActivityRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	SLA            config.SLAConfig
	Now            func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	Category     domain.TicketCategory
	CompanyID    string
	AssigneeID   *string
	Tags         []string
	CustomFields map[string]string
}

// TicketUpdateInput carries the mutable fields; nil means unchanged. An
// empty-string AssigneeID clears the assignment.
type TicketUpdateInput struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *domain.TicketCategory
	AssigneeID *string
}

// TicketListInput describes listing filters; scoping by role happens inside.
type TicketListInput struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Categories []domain.TicketCategory
	CompanyID  *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		timeEntries: deps.TimeEntryRepo,
		escalations: deps.EscalationRepo,
		reopens:     deps.ReopenRepo,
		watchers:    deps.WatcherRepo,
		activity:    deps.ActivityRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		slaCfg:      deps.SLA,
		now:         now,
	}
}

// Create files a new ticket for the reporter. Numbering comes from the
// atomic sequence; a sequence failure degrades to a timestamp-derived number
// so creation never fails on a numbering race.
func (s *TicketService) Create(ctx context.Context, reporter *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if !reporter.Active {
		return nil, apperrors.NewForbidden("account deactivated")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	now := s.now()
	ticket := &domain.Ticket{
		Number:       s.nextNumber(ctx),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
		Category:     input.Category,
		ReporterID:   reporter.ID,
		AssigneeID:   input.AssigneeID,
		CompanyID:    input.CompanyID,
		Tags:         input.Tags,
		CustomFields: input.CustomFields,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Category == "" {
		ticket.Category = domain.CategoryGeneral
	}
	if !ticket.Priority.Valid() || !ticket.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid priority or category", nil)
	}
	ticket.SLA = domain.SLARecord{
		TargetHours: s.slaCfg.TargetHours(string(ticket.Priority)),
		StartTime:   now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ticket.ID, &reporter.ID, domain.ActivityCreated,
		fmt.Sprintf("ticket %s created", ticket.Number))
	s.metrics.RecordTicketCreated()

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		ActorID:   reporter.ID,
		ActorRole: reporter.Role,
		Payload: events.TicketCreatedPayload{
			Number:     ticket.Number,
			CompanyID:  ticket.CompanyID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
			AssigneeID: ticket.AssigneeID,
			ReporterID: ticket.ReporterID,
		},
	})
	return ticket, nil
}

// Get fetches a ticket with its embedded collections for an allowed viewer.
// The SLA breach flag is recomputed at read time, not read from storage.
func (s *TicketService) Get(ctx context.Context, actor policy.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	if err := s.loadCollections(ctx, ticket); err != nil {
		return nil, err
	}
	ticket.SLA = ticket.SLA.Evaluate(ticket.Status, s.now())
	return ticket, nil
}

// List returns tickets visible to the actor: reporters see their own, agents
// their company's, admins and managers anything (optionally company-scoped).
func (s *TicketService) List(ctx context.Context, actor policy.Actor, actorCompanyID *string, input TicketListInput) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses:   input.Statuses,
		Priorities: input.Priorities,
		Categories: input.Categories,
		SearchTerm: input.SearchTerm,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		filter.CompanyID = input.CompanyID
	case domain.RoleAgent:
		filter.CompanyID = actorCompanyID
	case domain.RoleUser:
		reporterID := actor.ID
		filter.ReporterID = &reporterID
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	// The company scope is broader than the view rule for agents: an
	// unassigned agent must not see inactive tickets, so re-check each row
	// with the same predicate Get uses.
	if actor.Role == domain.RoleAgent {
		visible := tickets[:0]
		for i := range tickets {
			if policy.CanView(actor, &tickets[i]) {
				visible = append(visible, tickets[i])
			}
		}
		tickets = visible
	}
	now := s.now()
	for i := range tickets {
		tickets[i].SLA = tickets[i].SLA.Evaluate(tickets[i].Status, now)
	}
	return tickets, nil
}

// Update applies field changes. A status change is policed by the close
// rule, every other field by the edit rule; the two are checked
// independently so mixed updates need both.
func (s *TicketService) Update(ctx context.Context, actor policy.Actor, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	statusChange := input.Status != nil && *input.Status != ticket.Status
	otherChange := input.Priority != nil || input.Category != nil || input.AssigneeID != nil

	if statusChange && !policy.CanClose(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to change ticket status")
	}
	if otherChange && !policy.CanEdit(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to edit this ticket")
	}
	if !statusChange && !otherChange {
		return ticket, nil
	}

	// Audit entries are collected here and written only after the
	// version-guarded update lands; a conflicted write must not leave
	// activity rows for changes that never happened.
	type auditEntry struct {
		kind   domain.ActivityKind
		detail string
	}
	var audit []auditEntry
	var details []string
	var assignedTo *string

	if input.Priority != nil && *input.Priority != ticket.Priority {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", nil)
		}
		detail := fmt.Sprintf("priority changed from %s to %s", ticket.Priority, *input.Priority)
		ticket.Priority = *input.Priority
		details = append(details, detail)
		audit = append(audit, auditEntry{domain.ActivityPriorityChanged, detail})
	}
	if input.Category != nil && *input.Category != ticket.Category {
		if !input.Category.Valid() {
			return nil, apperrors.NewValidationError("invalid category", nil)
		}
		detail := fmt.Sprintf("category changed from %s to %s", ticket.Category, *input.Category)
		ticket.Category = *input.Category
		details = append(details, detail)
		audit = append(audit, auditEntry{domain.ActivityCategoryChanged, detail})
	}
	if input.AssigneeID != nil {
		old := "unassigned"
		if ticket.AssigneeID != nil {
			old = *ticket.AssigneeID
		}
		var detail string
		if *input.AssigneeID == "" {
			ticket.AssigneeID = nil
			detail = fmt.Sprintf("assignee changed from %s to unassigned", old)
		} else {
			id := *input.AssigneeID
			ticket.AssigneeID = &id
			assignedTo = &id
			detail = fmt.Sprintf("assignee changed from %s to %s", old, id)
		}
		details = append(details, detail)
		audit = append(audit, auditEntry{domain.ActivityAssigneeChanged, detail})
	}

	var oldStatus domain.TicketStatus
	if statusChange {
		oldStatus = ticket.Status
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", nil)
		}
		if !transitionAllowed(actor, ticket.Status, *input.Status) {
			return nil, apperrors.NewInvalidState(
				fmt.Sprintf("transition %s -> %s not allowed", ticket.Status, *input.Status), nil)
		}
		s.applyStatus(ticket, *input.Status)
		detail := fmt.Sprintf("status changed from %s to %s", oldStatus, ticket.Status)
		details = append(details, detail)
		audit = append(audit, auditEntry{domain.ActivityStatusChanged, detail})
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, err
	}

	for _, entry := range audit {
		s.recordActivity(ctx, ticket.ID, &actor.ID, entry.kind, entry.detail)
	}

	if assignedTo != nil {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Payload: events.TicketAssignedPayload{
				AssigneeID: *assignedTo,
				Number:     ticket.Number,
				Title:      ticket.Title,
			},
		})
	}
	if statusChange {
		watcherIDs, _ := s.watchers.ListByTicket(ctx, ticket.ID)
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketStatusChanged,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Payload: events.TicketStatusChangedPayload{
				OldStatus:  oldStatus,
				NewStatus:  ticket.Status,
				Detail:     strings.Join(details, "; "),
				ReporterID: ticket.ReporterID,
				AssigneeID: ticket.AssigneeID,
				WatcherIDs: watcherIDs,
			},
		})
	}
	return ticket, nil
}

// Escalate raises the ticket's escalation level by one. Staff only; the
// level never decreases and every escalation appends one history record.
func (s *TicketService) Escalate(ctx context.Context, actor policy.Actor, ticketID, targetUserID, reason string) (*domain.Ticket, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("escalation is staff only")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to escalate this ticket")
	}

	ticket.EscalationLevel++
	ticket.EscalatedTo = &targetUserID

	// The version-guarded update decides whether the escalation happened;
	// the history row follows it so a lost race leaves no orphaned record.
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, err
	}
	esc := &domain.Escalation{
		TicketID:    ticket.ID,
		Level:       ticket.EscalationLevel,
		EscalatedBy: actor.ID,
		EscalatedTo: targetUserID,
		Reason:      reason,
	}
	if err := s.escalations.Create(ctx, esc); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ticket.ID, &actor.ID, domain.ActivityEscalated,
		fmt.Sprintf("escalated to level %d", ticket.EscalationLevel))

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketEscalatedPayload{
			Level:       ticket.EscalationLevel,
			EscalatedTo: targetUserID,
			Reason:      reason,
			Number:      ticket.Number,
		},
	})
	return ticket, nil
}

// Delete removes a ticket irreversibly. Admin and manager only; dependent
// rows go with it via cascade, no further checks.
func (s *TicketService) Delete(ctx context.Context, actor policy.Actor, ticketID string) error {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return apperrors.NewForbidden("deletion is admin/manager only")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return err
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", ticketID), zap.String("actor_id", actor.ID))
	return nil
}

// AddWatcher subscribes a user to ticket notifications.
func (s *TicketService) AddWatcher(ctx context.Context, actor policy.Actor, ticketID, userID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !policy.CanView(actor, ticket) {
		return apperrors.NewForbidden("not allowed to view this ticket")
	}
	// Non-staff may only watch on their own behalf.
	if !actor.Role.IsStaff() && userID != actor.ID {
		return apperrors.NewForbidden("cannot add other watchers")
	}
	if err := s.watchers.Add(ctx, ticketID, userID); err != nil {
		return err
	}
	s.recordActivity(ctx, ticketID, &actor.ID, domain.ActivityWatcherAdded, fmt.Sprintf("watcher %s added", userID))
	return nil
}

// RemoveWatcher unsubscribes a user.
func (s *TicketService) RemoveWatcher(ctx context.Context, actor policy.Actor, ticketID, userID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !policy.CanView(actor, ticket) {
		return apperrors.NewForbidden("not allowed to view this ticket")
	}
	if !actor.Role.IsStaff() && userID != actor.ID {
		return apperrors.NewForbidden("cannot remove other watchers")
	}
	if err := s.watchers.Remove(ctx, ticketID, userID); err != nil {
		return err
	}
	s.recordActivity(ctx, ticketID, &actor.ID, domain.ActivityWatcherRemoved, fmt.Sprintf("watcher %s removed", userID))
	return nil
}

// ListActivity returns the audit trail. Non-staff viewers only see
// lifecycle entries, not internal bookkeeping like time tracking.
func (s *TicketService) ListActivity(ctx context.Context, actor policy.Actor, ticketID string, limit, offset int) ([]domain.ActivityEntry, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	entries, err := s.activity.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsStaff() {
		return entries, nil
	}
	allowed := make([]domain.ActivityEntry, 0, len(entries))
	for _, entry := range entries {
		switch entry.Kind {
		case domain.ActivityCreated, domain.ActivityStatusChanged, domain.ActivityAssigneeChanged,
			domain.ActivityReopenRequested, domain.ActivityReopenApproved, domain.ActivityReopenRejected:
			allowed = append(allowed, entry)
		}
	}
	return allowed, nil
}

// applyStatus mutates the lifecycle fields for a validated transition.
func (s *TicketService) applyStatus(ticket *domain.Ticket, next domain.TicketStatus) {
	now := s.now()
	switch next {
	case domain.TicketStatusResolved:
		ticket.ResolvedAt = &now
		s.freezeSLA(ticket, now)
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
		if ticket.SLA.EndTime == nil {
			s.freezeSLA(ticket, now)
		}
	case domain.TicketStatusOpen, domain.TicketStatusInProgress:
		ticket.ResolvedAt = nil
		ticket.ClosedAt = nil
		ticket.SLA.EndTime = nil
		ticket.SLA.IsBreached = false
	}
	ticket.Status = next
}

// freezeSLA stops breach evaluation. With ForgiveOnClose the flag is forced
// to false regardless of history; otherwise the verdict at this instant is
// frozen in.
func (s *TicketService) freezeSLA(ticket *domain.Ticket, now time.Time) {
	end := now
	ticket.SLA.EndTime = &end
	if s.slaCfg.ForgiveOnClose {
		ticket.SLA.IsBreached = false
	} else {
		ticket.SLA.IsBreached = now.Sub(ticket.SLA.StartTime).Hours() > ticket.SLA.TargetHours
	}
}

// transitionAllowed validates the state machine edges. Closed tickets only
// reopen via an approved reopen request or a direct admin override.
func transitionAllowed(actor policy.Actor, from, to domain.TicketStatus) bool {
	if from == to {
		return false
	}
	if from == domain.TicketStatusClosed {
		return to == domain.TicketStatusOpen && actor.Role == domain.RoleAdmin
	}
	return true
}

// nextNumber formats the next display number. The sequence is authoritative;
// the timestamp path is a degraded fallback that guarantees creation never
// fails on numbering, at the cost of strict monotonicity.
func (s *TicketService) nextNumber(ctx context.Context) string {
	next, err := s.tickets.NextNumber(ctx)
	if err != nil {
		s.logger.Warn("ticket number sequence unavailable, using timestamp fallback", zap.Error(err))
		return fmt.Sprintf("TKT-T%d", s.now().UnixMilli())
	}
	return fmt.Sprintf("TKT-%06d", next)
}

func (s *TicketService) loadCollections(ctx context.Context, ticket *domain.Ticket) error {
	var err error
	if ticket.TimeEntries, err = s.timeEntries.ListByTicket(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket.Escalations, err = s.escalations.ListByTicket(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket.ReopenRequests, err = s.reopens.ListByTicket(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket.WatcherIDs, err = s.watchers.ListByTicket(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket.Activity, err = s.activity.ListByTicket(ctx, ticket.ID, 100, 0); err != nil {
		return err
	}
	return nil
}

// recordActivity appends an audit entry; audit failures are logged, never
// propagated, so bookkeeping cannot veto the operation it describes.
func (s *TicketService) recordActivity(ctx context.Context, ticketID string, actorID *string, kind domain.ActivityKind, detail string) {
	entry := &domain.ActivityEntry{
		TicketID: ticketID,
		ActorID:  actorID,
		Kind:     kind,
		Detail:   detail,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
