package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TimeTrackingService maintains work-time entries per ticket. Invariants:
// at most one entry is active at any moment, and the ticket's actual-minutes
// aggregate always equals the sum of entry durations after any mutation.
type TimeTrackingService struct {
	tickets      repository.TicketRepository
	timeEntries  repository.TimeEntryRepository
	activity     repository.ActivityRepository
	subscription *SubscriptionService
	logger       *zap.Logger
	now          func() time.Time
}

// TimeTrackingDependencies bundles collaborators.
type TimeTrackingDependencies struct {
	TicketRepo    repository.TicketRepository
	TimeEntryRepo repository.TimeEntryRepository
	ActivityRepo  repository.ActivityRepository
	Subscription  *SubscriptionService
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewTimeTrackingService constructs the service.
func NewTimeTrackingService(deps TimeTrackingDependencies) *TimeTrackingService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TimeTrackingService{
		tickets:      deps.TicketRepo,
		timeEntries:  deps.TimeEntryRepo,
		activity:     deps.ActivityRepo,
		subscription: deps.Subscription,
		logger:       deps.Logger,
		now:          now,
	}
}

// Start opens a new active entry. Any previously active entry is finished
// first, keeping the at-most-one-active invariant.
func (s *TimeTrackingService) Start(ctx context.Context, actingUser *domain.User, ticketID, description string) (*domain.TimeEntry, error) {
	ticket, err := s.authorize(ctx, actingUser, ticketID)
	if err != nil {
		return nil, err
	}

	entries, err := s.timeEntries.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if active := domain.ActiveEntry(entries); active != nil {
		active.Finish(now)
		if err := s.timeEntries.Update(ctx, active); err != nil {
			return nil, err
		}
	}

	entry := &domain.TimeEntry{
		TicketID:    ticket.ID,
		UserID:      actingUser.ID,
		Description: description,
		StartTime:   now,
		IsActive:    true,
	}
	if err := s.timeEntries.Create(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.recomputeActual(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ticket.ID, actingUser.ID, "time tracking started")
	return entry, nil
}

// Stop finishes the active entry and recomputes the aggregate. Stopping a
// ticket with no running entry is an InvalidState, not a silent no-op.
func (s *TimeTrackingService) Stop(ctx context.Context, actingUser *domain.User, ticketID string) (*domain.TimeEntry, error) {
	ticket, err := s.authorize(ctx, actingUser, ticketID)
	if err != nil {
		return nil, err
	}

	entries, err := s.timeEntries.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	active := domain.ActiveEntry(entries)
	if active == nil {
		return nil, apperrors.NewInvalidState("no active time entry on this ticket", nil)
	}
	active.Finish(s.now())
	if err := s.timeEntries.Update(ctx, active); err != nil {
		return nil, err
	}
	if err := s.recomputeActual(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ticket.ID, actingUser.ID,
		fmt.Sprintf("time tracking stopped, %d minutes recorded", active.DurationMinutes))
	return active, nil
}

// AddManual appends a completed entry with explicit start/end.
func (s *TimeTrackingService) AddManual(ctx context.Context, actingUser *domain.User, ticketID, description string, start, end time.Time) (*domain.TimeEntry, error) {
	if !end.After(start) {
		return nil, apperrors.NewValidationError("end time must be after start time", nil)
	}
	ticket, err := s.authorize(ctx, actingUser, ticketID)
	if err != nil {
		return nil, err
	}

	entry := &domain.TimeEntry{
		TicketID:        ticket.ID,
		UserID:          actingUser.ID,
		Description:     description,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: domain.DurationMinutes(start, end),
	}
	if err := s.timeEntries.Create(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.recomputeActual(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ticket.ID, actingUser.ID,
		fmt.Sprintf("manual time entry added, %d minutes", entry.DurationMinutes))
	return entry, nil
}

// authorize checks the premium gate and the edit policy for the ticket.
func (s *TimeTrackingService) authorize(ctx context.Context, actingUser *domain.User, ticketID string) (*domain.Ticket, error) {
	if !actingUser.Role.IsStaff() {
		return nil, apperrors.NewForbidden("time tracking is staff only")
	}
	if !s.subscription.HasPremiumAccess(ctx, actingUser) {
		return nil, apperrors.NewForbidden("time tracking requires a premium subscription")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	actor := policy.Actor{ID: actingUser.ID, Role: actingUser.Role}
	if !policy.CanEdit(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to track time on this ticket")
	}
	return ticket, nil
}

// recomputeActual rewrites the aggregate from entry durations; the stored
// value is never adjusted incrementally.
func (s *TimeTrackingService) recomputeActual(ctx context.Context, ticket *domain.Ticket) error {
	entries, err := s.timeEntries.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return err
	}
	ticket.ActualMinutes = domain.SumDurations(entries)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return err
	}
	return nil
}

func (s *TimeTrackingService) recordActivity(ctx context.Context, ticketID, actorID, detail string) {
	entry := &domain.ActivityEntry{
		TicketID: ticketID,
		ActorID:  &actorID,
		Kind:     domain.ActivityTimeTracked,
		Detail:   detail,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}
