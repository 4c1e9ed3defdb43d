package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// PerformanceHandler manages evaluation endpoints.
type PerformanceHandler struct {
	service *service.PerformanceService
}

// NewPerformanceHandler constructs handler.
func NewPerformanceHandler(performanceService *service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{service: performanceService}
}

// Evaluate POST /api/performance/evaluate.
func (h *PerformanceHandler) Evaluate(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.EvaluateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	record, err := h.service.Evaluate(c.UserContext(), actor, service.EvaluationInput{
		StaffID:       req.StaffID,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		ManagerRating: req.ManagerRating,
		Comments:      req.Comments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": performanceResponse(record)})
}

// ListRecords GET /api/performance.
func (h *PerformanceHandler) ListRecords(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	filters, meta, err := parsePerformanceQuery(c)
	if err != nil {
		return err
	}
	records, err := h.service.ListRecords(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	return listResponse(c, mapSlice(records, performanceResponse), meta)
}

// GetRecord GET /api/performance/:id.
func (h *PerformanceHandler) GetRecord(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "performance record")
	if err != nil {
		return err
	}
	record, err := h.service.GetRecord(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": performanceResponse(record)})
}

// Summary GET /api/performance/staff/:staffId/summary.
func (h *PerformanceHandler) Summary(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	staffID, err := pathID(c, "staffId", "staff member")
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), actor, staffID)
	if err != nil {
		return err
	}
	resp := dto.PerformanceSummaryResponse{
		StaffID: summary.StaffID,
		Count:   summary.Count,
		Average: summary.Average,
		Trend:   summary.Trend,
	}
	if summary.Latest != nil {
		latest := performanceResponse(summary.Latest)
		resp.Latest = &latest
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Export GET /api/performance/export streams an xlsx workbook.
func (h *PerformanceHandler) Export(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	filters, _, err := parsePerformanceQuery(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.service.Export(c.UserContext(), actor, &buf, filters); err != nil {
		return err
	}
	return sendSpreadsheet(c, "performance.xlsx", buf.Bytes())
}

func parsePerformanceQuery(c *fiber.Ctx) (service.PerformanceListFilters, dto.ListMeta, error) {
	filters := service.PerformanceListFilters{
		StaffID:      optionalQuery(c, "staff_id"),
		DepartmentID: optionalQuery(c, "department_id"),
	}
	if g := c.Query("grade"); g != "" {
		grade := domain.Grade(strings.ToUpper(g))
		filters.Grade = &grade
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
