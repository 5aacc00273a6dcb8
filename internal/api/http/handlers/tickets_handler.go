package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	// Customers always file into their own tenant; staff may file on behalf
	// of any company.
	companyID := req.CompanyID
	if !principal.Role.IsStaff() || companyID == "" {
		if principal.User.CompanyID == nil {
			return apperrors.NewValidationError("company_id required", nil)
		}
		companyID = *principal.User.CompanyID
	}

	ticket, err := h.service.Create(c.UserContext(), principal.User, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Category:     req.Category,
		CompanyID:    companyID,
		AssigneeID:   req.AssigneeID,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	input := parseTicketQuery(c)
	tickets, err := h.service.List(c.UserContext(), actorOf(principal), principal.User.CompanyID, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.service.Get(c.UserContext(), actorOf(principal), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.UserContext(), actorOf(principal), c.Params("id"), service.TicketUpdateInput{
		Status:     req.Status,
		Priority:   req.Priority,
		Category:   req.Category,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.UserContext(), actorOf(principal), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.EscalateTo) == "" {
		return apperrors.NewValidationError("escalate_to required", nil)
	}
	ticket, err := h.service.Escalate(c.UserContext(), actorOf(principal), c.Params("id"), req.EscalateTo, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddWatcher POST /tickets/:id/watchers.
func (h *TicketsHandler) AddWatcher(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddWatcherRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	userID := req.UserID
	if userID == "" {
		userID = principal.User.ID
	}
	if err := h.service.AddWatcher(c.UserContext(), actorOf(principal), c.Params("id"), userID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveWatcher DELETE /tickets/:id/watchers/:userId.
func (h *TicketsHandler) RemoveWatcher(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.RemoveWatcher(c.UserContext(), actorOf(principal), c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListActivity GET /tickets/:id/activity.
func (h *TicketsHandler) ListActivity(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.service.ListActivity(c.UserContext(), actorOf(principal), c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, activityResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

func actorOf(principal *auth.Principal) policy.Actor {
	return policy.Actor{ID: principal.User.ID, Role: principal.Role}
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			input.Priorities = append(input.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			input.Categories = append(input.Categories, domain.TicketCategory(strings.TrimSpace(part)))
		}
	}
	if companyID := c.Query("company_id"); companyID != "" {
		input.CompanyID = &companyID
	}
	if search := c.Query("search"); search != "" {
		input.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize
	return input
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              ticket.ID,
		Number:          ticket.Number,
		Title:           ticket.Title,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Category:        ticket.Category,
		CompanyID:       ticket.CompanyID,
		ReporterID:      ticket.ReporterID,
		AssigneeID:      ticket.AssigneeID,
		EscalationLevel: ticket.EscalationLevel,
		SLA:             slaResponse(ticket.SLA),
		Tags:            ticket.Tags,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	detail := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		Description:   ticket.Description,
		CustomFields:  ticket.CustomFields,
		ActualMinutes: ticket.ActualMinutes,
		EscalatedTo:   ticket.EscalatedTo,
		WatcherIDs:    ticket.WatcherIDs,
		ResolvedAt:    ticket.ResolvedAt,
		ClosedAt:      ticket.ClosedAt,
	}
	for i := range ticket.TimeEntries {
		detail.TimeEntries = append(detail.TimeEntries, timeEntryResponse(&ticket.TimeEntries[i]))
	}
	for _, esc := range ticket.Escalations {
		detail.Escalations = append(detail.Escalations, dto.EscalationResponse{
			Level:       esc.Level,
			EscalatedBy: esc.EscalatedBy,
			EscalatedTo: esc.EscalatedTo,
			Reason:      esc.Reason,
			CreatedAt:   esc.CreatedAt,
		})
	}
	for i := range ticket.ReopenRequests {
		detail.ReopenRequests = append(detail.ReopenRequests, reopenResponse(&ticket.ReopenRequests[i]))
	}
	for _, entry := range ticket.Activity {
		detail.Activity = append(detail.Activity, activityResponse(entry))
	}
	return detail
}

func slaResponse(sla domain.SLARecord) dto.SLAResponse {
	return dto.SLAResponse{
		TargetHours: sla.TargetHours,
		StartTime:   sla.StartTime,
		EndTime:     sla.EndTime,
		IsBreached:  sla.IsBreached,
	}
}

func timeEntryResponse(entry *domain.TimeEntry) dto.TimeEntryResponse {
	return dto.TimeEntryResponse{
		ID:              entry.ID,
		UserID:          entry.UserID,
		Description:     entry.Description,
		StartTime:       entry.StartTime,
		EndTime:         entry.EndTime,
		DurationMinutes: entry.DurationMinutes,
		IsActive:        entry.IsActive,
	}
}

func reopenResponse(req *domain.ReopenRequest) dto.ReopenRequestResponse {
	return dto.ReopenRequestResponse{
		ID:          req.ID,
		RequesterID: req.RequesterID,
		Reason:      req.Reason,
		Status:      req.Status,
		ReviewerID:  req.ReviewerID,
		ReviewNote:  req.ReviewNote,
		RequestedAt: req.RequestedAt,
		ReviewedAt:  req.ReviewedAt,
	}
}

func activityResponse(entry domain.ActivityEntry) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		Kind:      entry.Kind,
		Detail:    entry.Detail,
		CreatedAt: entry.CreatedAt,
	}
}
