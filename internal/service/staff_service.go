package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/report"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// SystemActor is used by the operator CLI and background jobs.
var SystemActor = &domain.StaffMember{Name: "system", Role: domain.StaffRoleAdmin, Active: true}

// StaffService manages departments and staff members.
type StaffService struct {
	departments repository.DepartmentRepository
	staff       repository.StaffRepository
	bcryptCost  int
	logger      *zap.Logger
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	StaffRepo      repository.StaffRepository
	Logger         *zap.Logger
}

// StaffInput describes a new staff account. An empty Password gets a generated one.
type StaffInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.StaffRole
	DepartmentID *string
	Position     string
	Phone        string
	HireDate     *time.Time
}

// StaffUpdate carries optional field changes; nil leaves a field untouched.
type StaffUpdate struct {
	Name         *string
	Email        *string
	Role         *domain.StaffRole
	DepartmentID *string
	Position     *string
	Phone        *string
	HireDate     *time.Time
	Active       *bool
}

// SelfUpdate is the subset of profile fields staff may edit themselves.
type SelfUpdate struct {
	Name  *string
	Phone *string
}

// CreatedStaff is returned by create and import. TemporaryPassword is only set
// when the password was generated.
type CreatedStaff struct {
	Staff             *domain.StaffMember
	TemporaryPassword string
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role            *domain.StaffRole
	DepartmentID    *string
	Active          *bool
	MinWarningLevel *domain.WarningLevel
	Search          *string
	Page
}

// ImportResult summarizes a roster import.
type ImportResult struct {
	Created []ImportedRow `json:"created"`
	Skipped []SkippedRow  `json:"skipped"`
}

// ImportedRow is one created account.
type ImportedRow struct {
	Line              int    `json:"line"`
	ID                string `json:"id"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}

// SkippedRow is one rejected roster line.
type SkippedRow struct {
	Line   int    `json:"line"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// DepartmentInput describes department create/update payloads.
type DepartmentInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps OrgDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		departments: deps.DepartmentRepo,
		staff:       deps.StaffRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
		logger:      logger,
	}
}

// CreateDepartment creates a new department.
func (s *StaffService) CreateDepartment(ctx context.Context, actor *domain.StaffMember, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var rawName string
	if input.Name != nil {
		rawName = *input.Name
	}
	name, err := requireText("name", rawName, 120)
	if err != nil {
		return nil, err
	}
	dept := &domain.Department{Name: name, IsActive: true}
	if input.Description != nil {
		dept.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns departments. Only admins see inactive ones.
func (s *StaffService) ListDepartments(ctx context.Context, actor *domain.StaffMember, includeInactive bool) ([]domain.Department, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	depts, err := s.departments.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := depts[:0]
	for _, d := range depts {
		if d.VisibleTo(actor.Role) {
			visible = append(visible, d)
		}
	}
	return visible, nil
}

// UpdateDepartment modifies department metadata.
func (s *StaffService) UpdateDepartment(ctx context.Context, actor *domain.StaffMember, id string, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "department", map[string]any{"id": id})
	}
	if input.Name != nil {
		if dept.Name, err = requireText("name", *input.Name, 120); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		dept.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		dept.IsActive = *input.IsActive
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// CreateStaffMember adds a new staff account.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, input StaffInput) (*CreatedStaff, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name, err := requireText("name", input.Name, 120)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = domain.StaffRoleEmployee
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if input.DepartmentID != nil && *input.DepartmentID == "" {
		input.DepartmentID = nil
	}
	if err := s.ensureDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}

	password, temporary := input.Password, ""
	if password == "" {
		if password, err = auth.GenerateTemporaryPassword(); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		temporary = password
	} else if err := auth.ValidatePassword(password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: input.DepartmentID,
		Position:     strings.TrimSpace(input.Position),
		Phone:        strings.TrimSpace(input.Phone),
		HireDate:     input.HireDate,
		Active:       true,
		WarningLevel: domain.WarningLevelNone,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &CreatedStaff{Staff: staff, TemporaryPassword: temporary}, nil
}

// ListStaffMembers lists staff with filters and returns the unpaged total.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, int, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, 0, err
	}
	repoFilter := repository.StaffFilter{
		Role:            filters.Role,
		DepartmentID:    filters.DepartmentID,
		Active:          filters.Active,
		MinWarningLevel: filters.MinWarningLevel,
		Search:          filters.Search,
		Limit:           filters.Limit,
		Offset:          filters.Offset,
	}
	items, err := s.staff.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.staff.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// GetStaffMemberByID fetches staff. Employees may only fetch themselves.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !canSee(actor, id) {
		return nil, apperrors.NewForbidden("cannot view other staff profiles")
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"id": id})
	}
	return staff, nil
}

// UpdateStaffMember updates staff details.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID string, input StaffUpdate) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"id": staffID})
	}
	if input.Name != nil {
		if staff.Name, err = requireText("name", *input.Name, 120); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if email != staff.Email {
			if err := s.ensureEmailFree(ctx, email, staff.ID); err != nil {
				return nil, err
			}
		}
		staff.Email = email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		staff.Role = *input.Role
	}
	if input.DepartmentID != nil {
		if *input.DepartmentID == "" {
			staff.DepartmentID = nil
		} else {
			if err := s.ensureDepartment(ctx, input.DepartmentID); err != nil {
				return nil, err
			}
			staff.DepartmentID = input.DepartmentID
		}
	}
	if input.Position != nil {
		staff.Position = strings.TrimSpace(*input.Position)
	}
	if input.Phone != nil {
		staff.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.HireDate != nil {
		staff.HireDate = input.HireDate
	}
	if input.Active != nil {
		if !*input.Active && staff.ID == actor.ID {
			return nil, apperrors.NewConflict("cannot deactivate your own account", nil)
		}
		staff.Active = *input.Active
	}

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// DeactivateStaffMember soft-deletes an account.
func (s *StaffService) DeactivateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID string) error {
	inactive := false
	_, err := s.UpdateStaffMember(ctx, actor, staffID, StaffUpdate{Active: &inactive})
	return err
}

// UpdateSelf lets any staff member edit their own name and phone.
func (s *StaffService) UpdateSelf(ctx context.Context, actor *domain.StaffMember, input SelfUpdate) (*domain.StaffMember, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", nil)
	}
	if input.Name != nil {
		if staff.Name, err = requireText("name", *input.Name, 120); err != nil {
			return nil, err
		}
	}
	if input.Phone != nil {
		staff.Phone = strings.TrimSpace(*input.Phone)
	}
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ImportRoster creates accounts from an xlsx roster. Existing emails, unknown
// departments and invalid rows are skipped with a reason.
func (s *StaffService) ImportRoster(ctx context.Context, actor *domain.StaffMember, r io.Reader) (*ImportResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := report.ParseRoster(r)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	result := &ImportResult{Created: []ImportedRow{}, Skipped: []SkippedRow{}}
	departments := map[string]*string{}
	seen := map[string]bool{}
	for _, row := range rows {
		skip := func(reason string) {
			result.Skipped = append(result.Skipped, SkippedRow{Line: row.Line, Email: row.Email, Reason: reason})
		}
		email := strings.ToLower(row.Email)
		if seen[email] {
			skip("duplicate email in file")
			continue
		}
		seen[email] = true

		input := StaffInput{
			Name:     row.Name,
			Email:    row.Email,
			Role:     domain.StaffRole(row.Role),
			Position: row.Position,
			Phone:    row.Phone,
		}
		if row.Department != "" {
			key := strings.ToLower(row.Department)
			deptID, cached := departments[key]
			if !cached {
				dept, err := s.departments.GetByName(ctx, row.Department)
				switch {
				case err == nil:
					deptID = &dept.ID
				case apperrors.IsNotFound(err):
				default:
					return nil, apperrors.MapError(err)
				}
				departments[key] = deptID
			}
			if deptID == nil {
				skip(fmt.Sprintf("unknown department %q", row.Department))
				continue
			}
			input.DepartmentID = deptID
		}

		created, err := s.CreateStaffMember(ctx, actor, input)
		if err != nil {
			de := apperrors.ToDomainError(err)
			if de.HTTPStatus >= 500 {
				return nil, err
			}
			skip(de.Message)
			continue
		}
		result.Created = append(result.Created, ImportedRow{
			Line:              row.Line,
			ID:                created.Staff.ID,
			Email:             created.Staff.Email,
			TemporaryPassword: created.TemporaryPassword,
		})
	}
	s.logger.Info("roster imported",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (s *StaffService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.staff.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	case err == nil, apperrors.IsNotFound(err):
		return nil
	default:
		return apperrors.MapError(err)
	}
}

func (s *StaffService) ensureDepartment(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	dept, err := s.departments.GetByID(ctx, *id)
	if err != nil {
		return apperrors.NotFoundOr(err, "department", map[string]any{"id": *id})
	}
	if err := dept.AcceptsStaff(); err != nil {
		return apperrors.NewConflict(err.Error(), map[string]any{"department_id": *id})
	}
	return nil
}
