package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// DashboardHandler serves the aggregated overviews.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Admin GET /api/dashboard/admin.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	d, err := h.service.Admin(c.UserContext(), actor)
	if err != nil {
		return err
	}
	tasks := d.TasksByStatus
	if tasks == nil {
		tasks = map[domain.TaskStatus]int{}
	}
	return c.JSON(fiber.Map{"data": dto.AdminDashboardResponse{
		ActiveStaff:          d.ActiveStaff,
		TasksByStatus:        tasks,
		PendingVerifications: d.PendingVerifications,
		ShiftsToday:          mapSlice(d.ShiftsToday, shiftResponse),
		AtRiskStaff:          mapSlice(d.AtRiskStaff, staffResponse),
		UnreadAlerts:         d.UnreadAlerts,
	}})
}

// Me GET /api/dashboard/me.
func (h *DashboardHandler) Me(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	d, err := h.service.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := dto.StaffDashboardResponse{
		OpenTasks:      mapSlice(d.OpenTasks, taskResponse),
		UpcomingShifts: mapSlice(d.UpcomingShifts, shiftResponse),
		UnreadAlerts:   d.UnreadAlerts,
		WarningLevel:   d.WarningLevel,
	}
	if d.LatestPerformance != nil {
		latest := performanceResponse(d.LatestPerformance)
		resp.LatestPerformance = &latest
	}
	return c.JSON(fiber.Map{"data": resp})
}
