package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// minReasonLength guards against empty-handed reopen requests.
const minReasonLength = 10

// ReopenService runs the nested per-request state machine: pending moves to
// approved or rejected exactly once; re-deciding is an error, never a no-op.
type ReopenService struct {
	tickets    repository.TicketRepository
	reopens    repository.ReopenRequestRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ReopenDependencies bundles collaborators.
type ReopenDependencies struct {
	TicketRepo   repository.TicketRepository
	ReopenRepo   repository.ReopenRequestRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewReopenService constructs the service.
func NewReopenService(deps ReopenDependencies) *ReopenService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ReopenService{
		tickets:    deps.TicketRepo,
		reopens:    deps.ReopenRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// Request files a reopen request against a closed ticket.
func (s *ReopenService) Request(ctx context.Context, actor policy.Actor, ticketID, reason string) (*domain.ReopenRequest, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanRequestReopen(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to request reopening of this ticket")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < minReasonLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("reason must be at least %d characters", minReasonLength), nil)
	}

	req := &domain.ReopenRequest{
		TicketID:    ticket.ID,
		RequesterID: actor.ID,
		Reason:      reason,
		Status:      domain.ReopenPending,
	}
	if err := s.reopens.Create(ctx, req); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ticket.ID, actor.ID, domain.ActivityReopenRequested, "reopen requested")

	s.publishEvent(ctx, events.Event{
		Type:      events.EventReopenRequested,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload: events.ReopenRequestedPayload{
			RequestID:   req.ID,
			RequesterID: req.RequesterID,
			Reason:      req.Reason,
			Number:      ticket.Number,
			AssigneeID:  ticket.AssigneeID,
		},
	})
	return req, nil
}

// ReopenDecisionFunc is the shared signature of Approve and Reject.
type ReopenDecisionFunc func(ctx context.Context, actor policy.Actor, requestID, note string) (*domain.ReopenRequest, error)

// Approve decides a pending request positively and flips the ticket back to
// open.
func (s *ReopenService) Approve(ctx context.Context, actor policy.Actor, requestID, note string) (*domain.ReopenRequest, error) {
	return s.decide(ctx, actor, requestID, note, domain.ReopenApproved)
}

// Reject decides a pending request negatively; the ticket stays closed.
func (s *ReopenService) Reject(ctx context.Context, actor policy.Actor, requestID, note string) (*domain.ReopenRequest, error) {
	return s.decide(ctx, actor, requestID, note, domain.ReopenRejected)
}

func (s *ReopenService) decide(ctx context.Context, actor policy.Actor, requestID, note string, decision domain.ReopenStatus) (*domain.ReopenRequest, error) {
	if !policy.CanDecideReopen(actor) {
		return nil, apperrors.NewForbidden("reopen decisions are admin/manager only")
	}
	req, err := s.reopens.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reopen request", nil)
		}
		return nil, err
	}
	if req.Decided() {
		return nil, apperrors.NewInvalidState(
			fmt.Sprintf("reopen request already %s", strings.ToLower(string(req.Status))), nil)
	}

	now := s.now()
	req.Status = decision
	req.ReviewerID = &actor.ID
	req.ReviewedAt = &now
	if note != "" {
		req.ReviewNote = &note
	}
	if err := s.reopens.Decide(ctx, req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the decision race to another reviewer
			return nil, apperrors.NewInvalidState("reopen request already decided", nil)
		}
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}

	if decision == domain.ReopenApproved {
		ticket.Status = domain.TicketStatusOpen
		ticket.ClosedAt = nil
		ticket.ResolvedAt = nil
		ticket.SLA.EndTime = nil
		ticket.SLA.IsBreached = false
		if err := s.tickets.Update(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
			}
			return nil, err
		}
		s.recordActivity(ctx, ticket.ID, actor.ID, domain.ActivityReopenApproved, "reopen request approved, ticket reopened")
	} else {
		s.recordActivity(ctx, ticket.ID, actor.ID, domain.ActivityReopenRejected, "reopen request rejected")
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventReopenDecided,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload: events.ReopenDecidedPayload{
			RequestID:   req.ID,
			RequesterID: req.RequesterID,
			Decision:    decision,
			ReviewNote:  note,
			Number:      ticket.Number,
		},
	})
	return req, nil
}

func (s *ReopenService) recordActivity(ctx context.Context, ticketID, actorID string, kind domain.ActivityKind, detail string) {
	entry := &domain.ActivityEntry{
		TicketID: ticketID,
		ActorID:  &actorID,
		Kind:     kind,
		Detail:   detail,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *ReopenService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
