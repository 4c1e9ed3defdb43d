package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// VerificationHandler manages task-completion verification endpoints.
type VerificationHandler struct {
	service *service.VerificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verificationService *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: verificationService}
}

// Submit POST /api/verification.
func (h *VerificationHandler) Submit(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.SubmitVerificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.service.Submit(c.UserContext(), actor, service.SubmissionInput{
		TaskID:       req.TaskID,
		Notes:        req.Notes,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": verificationResponse(v)})
}

// List GET /api/verification.
func (h *VerificationHandler) List(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	page, meta := parsePage(c)
	filters := service.VerificationListFilters{TaskID: optionalQuery(c, "task_id"), Page: page}
	if s := c.Query("status"); s != "" {
		status := domain.VerificationStatus(strings.ToUpper(s))
		filters.Status = &status
	}
	items, err := h.service.List(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	return listResponse(c, mapSlice(items, verificationResponse), meta)
}

// Get GET /api/verification/:id.
func (h *VerificationHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "verification")
	if err != nil {
		return err
	}
	v, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": verificationResponse(v)})
}

// Approve POST /api/verification/:id/approve.
func (h *VerificationHandler) Approve(c *fiber.Ctx) error {
	return h.review(c, h.service.Approve)
}

// Reject POST /api/verification/:id/reject.
func (h *VerificationHandler) Reject(c *fiber.Ctx) error {
	return h.review(c, h.service.Reject)
}

type reviewFunc func(ctx context.Context, actor *domain.StaffMember, id string, input service.ReviewInput) (*domain.Verification, error)

func (h *VerificationHandler) review(c *fiber.Ctx, decide reviewFunc) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "verification")
	if err != nil {
		return err
	}
	var req dto.ReviewVerificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := decide(c.UserContext(), actor, id, service.ReviewInput{
		QualityRating: req.QualityRating,
		Comment:       req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": verificationResponse(v)})
}
