package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CommentService handles the ticket thread. All comment entry points go
// through Add, so the first-staff-reply auto-transition behaves identically
// no matter which handler received the request.
type CommentService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	activity    repository.ActivityRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	ActivityRepo   repository.ActivityRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// CommentAttachmentInput defines attachment metadata.
type CommentAttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CommentService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		activity:    deps.ActivityRepo,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		now:         now,
	}
}

// Add appends a comment. The first staff comment on an open ticket moves it
// to in_progress and records a synthetic system comment for the change.
func (s *CommentService) Add(ctx context.Context, actor policy.Actor, ticketID, body string, internal bool, attachments []CommentAttachmentInput) (*domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanComment(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to comment on this ticket")
	}
	if internal && !policy.CanMarkInternal(actor) {
		return nil, apperrors.NewForbidden("internal comments are staff only")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}

	authorID := actor.ID
	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   &authorID,
		Body:       body,
		IsInternal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	for _, att := range attachments {
		record := &domain.AttachmentReference{
			CommentID:  comment.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, err
		}
		comment.Attachments = append(comment.Attachments, *record)
	}

	s.recordActivity(ctx, ticket.ID, &authorID, domain.ActivityCommentAdded, "comment added")

	if actor.Role.IsStaff() && ticket.Status == domain.TicketStatusOpen {
		if err := s.autoTransition(ctx, actor, ticket); err != nil {
			s.logger.Warn("auto transition after staff comment failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCommentAdded,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketCommentAddedPayload{
			CommentID:  comment.ID,
			AuthorID:   comment.AuthorID,
			Internal:   comment.IsInternal,
			Preview:    preview(comment.Body, 120),
			ReporterID: ticket.ReporterID,
			AssigneeID: ticket.AssigneeID,
		},
	})
	return comment, nil
}

// List returns the thread as the viewer may see it; internal comments are
// redacted for non-staff, existence and timestamps preserved.
func (s *CommentService) List(ctx context.Context, actor policy.Actor, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		atts, err := s.attachments.ListByComment(ctx, comments[i].ID)
		if err != nil {
			return nil, err
		}
		comments[i].Attachments = atts
	}
	return policy.RedactForViewer(actor, comments), nil
}

// autoTransition moves an open ticket to in_progress on first staff reply
// and appends the synthetic status-change comment.
func (s *CommentService) autoTransition(ctx context.Context, actor policy.Actor, ticket *domain.Ticket) error {
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusInProgress
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// someone else already moved the ticket; nothing to do
			return nil
		}
		return err
	}
	detail := fmt.Sprintf("status changed from %s to %s", oldStatus, ticket.Status)
	system := &domain.Comment{
		TicketID: ticket.ID,
		Body:     detail,
		IsSystem: true,
	}
	if err := s.comments.Create(ctx, system); err != nil {
		return err
	}
	s.recordActivity(ctx, ticket.ID, &actor.ID, domain.ActivityStatusChanged, detail)
	return nil
}

func (s *CommentService) recordActivity(ctx context.Context, ticketID string, actorID *string, kind domain.ActivityKind, detail string) {
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

func (s *CommentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
