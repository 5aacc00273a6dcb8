package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TimeTrackingHandler manages work-time endpoints.
type TimeTrackingHandler struct {
	service *service.TimeTrackingService
}

// NewTimeTrackingHandler constructs handler.
func NewTimeTrackingHandler(timeService *service.TimeTrackingService) *TimeTrackingHandler {
	return &TimeTrackingHandler{service: timeService}
}

// Start POST /tickets/:id/time/start.
func (h *TimeTrackingHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.StartTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.Start(c.UserContext(), principal.User, c.Params("id"), req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": timeEntryResponse(entry)})
}

// Stop POST /tickets/:id/time/stop.
func (h *TimeTrackingHandler) Stop(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	entry, err := h.service.Stop(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": timeEntryResponse(entry)})
}

// AddManual POST /tickets/:id/time/entries.
func (h *TimeTrackingHandler) AddManual(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ManualTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return apperrors.NewValidationError("start_time and end_time required", nil)
	}
	entry, err := h.service.AddManual(c.UserContext(), principal.User, c.Params("id"), req.Description, req.StartTime, req.EndTime)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": timeEntryResponse(entry)})
}
