package handlers

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// ScheduleHandler manages shift endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: scheduleService}
}

// CreateShift POST /api/schedule.
func (h *ScheduleHandler) CreateShift(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.CreateShiftRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	shift, err := h.service.CreateShift(c.UserContext(), actor, service.ShiftInput{
		StaffID:   req.StaffID,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		ShiftType: req.ShiftType,
		Location:  req.Location,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": shiftResponse(shift)})
}

// ListShifts GET /api/schedule. Without from/to the current week is returned.
func (h *ScheduleHandler) ListShifts(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	filters, meta, err := parseShiftQuery(c)
	if err != nil {
		return err
	}
	shifts, err := h.service.ListShifts(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	return listResponse(c, mapSlice(shifts, shiftResponse), meta)
}

// GetShift GET /api/schedule/:id.
func (h *ScheduleHandler) GetShift(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "shift")
	if err != nil {
		return err
	}
	shift, err := h.service.GetShift(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shiftResponse(shift)})
}

// UpdateShift PUT /api/schedule/:id.
func (h *ScheduleHandler) UpdateShift(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "shift")
	if err != nil {
		return err
	}
	var req dto.UpdateShiftRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	shift, err := h.service.UpdateShift(c.UserContext(), actor, id, service.ShiftUpdate{
		StaffID:   req.StaffID,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		ShiftType: req.ShiftType,
		Location:  req.Location,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shiftResponse(shift)})
}

// CancelShift POST /api/schedule/:id/cancel.
func (h *ScheduleHandler) CancelShift(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "shift")
	if err != nil {
		return err
	}
	shift, err := h.service.CancelShift(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shiftResponse(shift)})
}

// DeleteShift DELETE /api/schedule/:id.
func (h *ScheduleHandler) DeleteShift(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "shift")
	if err != nil {
		return err
	}
	if err := h.service.DeleteShift(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CheckIn POST /api/schedule/:id/check-in.
func (h *ScheduleHandler) CheckIn(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "shift")
	if err != nil {
		return err
	}
	shift, err := h.service.CheckIn(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shiftResponse(shift)})
}

// CheckOut POST /api/schedule/:id/check-out.
func (h *ScheduleHandler) CheckOut(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "shift")
	if err != nil {
		return err
	}
	shift, err := h.service.CheckOut(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shiftResponse(shift)})
}

// Export GET /api/schedule/export streams an xlsx workbook.
func (h *ScheduleHandler) Export(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	filters, _, err := parseShiftQuery(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.service.Export(c.UserContext(), actor, &buf, filters); err != nil {
		return err
	}
	return sendSpreadsheet(c, "schedule.xlsx", buf.Bytes())
}

func parseShiftQuery(c *fiber.Ctx) (service.ShiftListFilters, dto.ListMeta, error) {
	filters := service.ShiftListFilters{
		StaffID:      optionalQuery(c, "staff_id"),
		DepartmentID: optionalQuery(c, "department_id"),
		Statuses:     splitCSV[domain.ShiftStatus](c.Query("status")),
	}
	var err error
	if filters.From, err = parseTime(c, "from"); err != nil {
		return filters, dto.ListMeta{}, err
	}
	if filters.To, err = parseTime(c, "to"); err != nil {
		return filters, dto.ListMeta{}, err
	}
	page, meta := parsePage(c)
	filters.Page = page
	return filters, meta, nil
}
