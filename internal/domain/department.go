package domain

import (
	"errors"
	"time"
)

// ErrDepartmentInactive is returned when staff are placed in a closed department.
var ErrDepartmentInactive = errors.New("department inactive")

// Department is an organisational unit staff members belong to. Closing a
// department keeps its history but blocks new assignments.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AcceptsStaff reports whether members may be assigned to d.
func (d *Department) AcceptsStaff() error {
	if !d.IsActive {
		return ErrDepartmentInactive
	}
	return nil
}

// VisibleTo reports whether role may see d in listings.
func (d *Department) VisibleTo(role StaffRole) bool {
	return d.IsActive || role == StaffRoleAdmin
}
