package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// StaffHandler exposes staff profile and department endpoints.
type StaffHandler struct {
	orgService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(orgService *service.StaffService) *StaffHandler {
	return &StaffHandler{orgService: orgService}
}

// CreateDepartment handles POST /api/departments.
func (h *StaffHandler) CreateDepartment(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dept, err := h.orgService.CreateDepartment(c.UserContext(), actor, departmentInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments handles GET /api/departments.
func (h *StaffHandler) ListDepartments(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	includeInactive, err := parseBool(c, "include_inactive")
	if err != nil {
		return err
	}
	depts, err := h.orgService.ListDepartments(c.UserContext(), actor, includeInactive != nil && *includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapSlice(depts, departmentResponse)})
}

// UpdateDepartment handles PUT /api/departments/:id.
func (h *StaffHandler) UpdateDepartment(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "department")
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dept, err := h.orgService.UpdateDepartment(c.UserContext(), actor, id, departmentInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// CreateStaff handles POST /api/staff.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.orgService.CreateStaffMember(c.UserContext(), actor, service.StaffInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Position:     req.Position,
		Phone:        req.Phone,
		HireDate:     req.HireDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreatedStaffResponse{
		Staff:             staffResponse(created.Staff),
		TemporaryPassword: created.TemporaryPassword,
	}})
}

// ListStaff handles GET /api/staff.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	filters, meta, err := parseStaffListFilters(c)
	if err != nil {
		return err
	}
	list, total, err := h.orgService.ListStaffMembers(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	meta.Total = &total
	return listResponse(c, mapSlice(list, staffResponse), meta)
}

// GetStaff handles GET /api/staff/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "staff member")
	if err != nil {
		return err
	}
	staff, err := h.orgService.GetStaffMemberByID(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}

// UpdateStaff handles PUT /api/staff/:id.
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "staff member")
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.orgService.UpdateStaffMember(c.UserContext(), actor, id, service.StaffUpdate{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Position:     req.Position,
		Phone:        req.Phone,
		HireDate:     req.HireDate,
		Active:       req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

// DeactivateStaff handles DELETE /api/staff/:id. Accounts are deactivated, never removed.
func (h *StaffHandler) DeactivateStaff(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "staff member")
	if err != nil {
		return err
	}
	if err := h.orgService.DeactivateStaffMember(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetSelf handles GET /api/staff/me.
func (h *StaffHandler) GetSelf(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(actor)})
}

// UpdateSelf handles PUT /api/staff/me.
func (h *StaffHandler) UpdateSelf(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.SelfUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.orgService.UpdateSelf(c.UserContext(), actor, service.SelfUpdate{Name: req.Name, Phone: req.Phone})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

// ImportRoster handles POST /api/staff/import with a multipart "file" field.
func (h *StaffHandler) ImportRoster(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file upload required", map[string]any{"field": "file"})
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer f.Close()

	result, err := h.orgService.ImportRoster(c.UserContext(), actor, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

func departmentInput(req dto.DepartmentRequest) service.DepartmentInput {
	return service.DepartmentInput{Name: req.Name, Description: req.Description, IsActive: req.IsActive}
}

func parseStaffListFilters(c *fiber.Ctx) (service.StaffListFilters, dto.ListMeta, error) {
	var filters service.StaffListFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filters.Role = &role
	}
	if level := c.Query("min_warning_level"); level != "" {
		lvl := domain.WarningLevel(level)
		filters.MinWarningLevel = &lvl
	}
	filters.DepartmentID = optionalQuery(c, "department_id")
	filters.Search = optionalQuery(c, "search")
	active, err := parseBool(c, "active")
	if err != nil {
		return filters, dto.ListMeta{}, err
	}
	filters.Active = active
	page, meta := parsePage(c)
	filters.Page = page
	return filters, meta, nil
}
