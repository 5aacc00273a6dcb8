package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ReopenHandler manages the reopen-request workflow endpoints.
type ReopenHandler struct {
	service *service.ReopenService
}

// NewReopenHandler constructs handler.
func NewReopenHandler(reopenService *service.ReopenService) *ReopenHandler {
	return &ReopenHandler{service: reopenService}
}

// Request POST /tickets/:id/reopen-requests.
func (h *ReopenHandler) Request(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReopenRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.service.Request(c.UserContext(), actorOf(principal), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reopenResponse(request)})
}

// Approve POST /reopen-requests/:id/approve.
func (h *ReopenHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, h.service.Approve)
}

// Reject POST /reopen-requests/:id/reject.
func (h *ReopenHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, h.service.Reject)
}

func (h *ReopenHandler) decide(c *fiber.Ctx, fn service.ReopenDecisionFunc) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReopenDecisionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := fn(c.UserContext(), actorOf(principal), c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reopenResponse(request)})
}
