package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// DisciplineHandler manages warning endpoints.
type DisciplineHandler struct {
	service *service.DisciplineService
}

// NewDisciplineHandler constructs handler.
func NewDisciplineHandler(disciplineService *service.DisciplineService) *DisciplineHandler {
	return &DisciplineHandler{service: disciplineService}
}

// IssueWarning POST /api/discipline/warnings.
func (h *DisciplineHandler) IssueWarning(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.IssueWarningRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	warning, err := h.service.IssueWarning(c.UserContext(), actor, service.WarningInput{
		StaffID: req.StaffID,
		Reason:  req.Reason,
		Level:   req.Level,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": warningResponse(warning)})
}

// ListWarnings GET /api/discipline/warnings.
func (h *DisciplineHandler) ListWarnings(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	activeOnly, err := parseBool(c, "active")
	if err != nil {
		return err
	}
	page, meta := parsePage(c)
	warnings, err := h.service.ListWarnings(c.UserContext(), actor, service.WarningListFilters{
		StaffID:    optionalQuery(c, "staff_id"),
		ActiveOnly: activeOnly != nil && *activeOnly,
		Page:       page,
	})
	if err != nil {
		return err
	}
	return listResponse(c, mapSlice(warnings, warningResponse), meta)
}

// Acknowledge POST /api/discipline/warnings/:id/acknowledge.
func (h *DisciplineHandler) Acknowledge(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "warning")
	if err != nil {
		return err
	}
	warning, err := h.service.Acknowledge(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": warningResponse(warning)})
}

// Revoke POST /api/discipline/warnings/:id/revoke.
func (h *DisciplineHandler) Revoke(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "warning")
	if err != nil {
		return err
	}
	warning, err := h.service.Revoke(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": warningResponse(warning)})
}
