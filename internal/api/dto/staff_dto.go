package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// DepartmentRequest payload for create and update.
type DepartmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentResponse view.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StaffCreateRequest payload. Password is optional; a temporary one is generated when empty.
type StaffCreateRequest struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Password     string           `json:"password"`
	Role         domain.StaffRole `json:"role"`
	DepartmentID *string          `json:"department_id"`
	Position     string           `json:"position"`
	Phone        string           `json:"phone"`
	HireDate     *time.Time       `json:"hire_date"`
}

// StaffUpdateRequest payload; omitted fields are left untouched.
type StaffUpdateRequest struct {
	Name         *string           `json:"name"`
	Email        *string           `json:"email"`
	Role         *domain.StaffRole `json:"role"`
	DepartmentID *string           `json:"department_id"`
	Position     *string           `json:"position"`
	Phone        *string           `json:"phone"`
	HireDate     *time.Time        `json:"hire_date"`
	Active       *bool             `json:"active"`
}

// SelfUpdateRequest payload for PUT /api/staff/me.
type SelfUpdateRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// StaffResponse is the public view of a staff member.
type StaffResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Role         domain.StaffRole    `json:"role"`
	DepartmentID *string             `json:"department_id"`
	Position     string              `json:"position"`
	Phone        string              `json:"phone"`
	HireDate     *time.Time          `json:"hire_date"`
	Active       bool                `json:"active"`
	WarningLevel domain.WarningLevel `json:"warning_level"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// CreatedStaffResponse wraps a new account and its one-time password.
type CreatedStaffResponse struct {
	Staff             StaffResponse `json:"staff"`
	TemporaryPassword string        `json:"temporary_password,omitempty"`
}
