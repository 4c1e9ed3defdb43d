package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// AlertHandler manages the alert inbox.
type AlertHandler struct {
	service *service.AlertService
}

// NewAlertHandler constructs handler.
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{service: alertService}
}

// ListAlerts GET /api/alerts.
func (h *AlertHandler) ListAlerts(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	unread, err := parseBool(c, "unread")
	if err != nil {
		return err
	}
	page, meta := parsePage(c)
	filters := service.AlertListFilters{UnreadOnly: unread != nil && *unread, Page: page}
	if t := c.Query("type"); t != "" {
		alertType := domain.AlertType(strings.ToUpper(t))
		filters.Type = &alertType
	}
	alerts, err := h.service.List(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	return listResponse(c, mapSlice(alerts, alertResponse), meta)
}

// UnreadCount GET /api/alerts/unread-count.
func (h *AlertHandler) UnreadCount(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	n, err := h.service.UnreadCount(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": n}})
}

// MarkRead PATCH /api/alerts/:id/read.
func (h *AlertHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "alert")
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}

// MarkAllRead PATCH /api/alerts/read-all.
func (h *AlertHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": n}})
}

// DeleteAlert DELETE /api/alerts/:id.
func (h *AlertHandler) DeleteAlert(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "alert")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateAlert POST /api/alerts.
func (h *AlertHandler) CreateAlert(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.CreateAlertRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	alerts, err := h.service.Create(c.UserContext(), actor, service.AlertInput{
		RecipientID: req.RecipientID,
		Role:        req.Role,
		Type:        req.Type,
		Severity:    req.Severity,
		Title:       req.Title,
		Message:     req.Message,
		ReferenceID: req.ReferenceID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mapSlice(alerts, alertResponse)})
}
