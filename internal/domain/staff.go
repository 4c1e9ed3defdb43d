package domain

import "time"

// StaffRole enumerates access roles.
type StaffRole string

const (
	StaffRoleAdmin    StaffRole = "ADMIN"
	StaffRoleManager  StaffRole = "MANAGER"
	StaffRoleEmployee StaffRole = "EMPLOYEE"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAdmin, StaffRoleManager, StaffRoleEmployee:
		return true
	}
	return false
}

// Supervises reports whether the role may manage other staff members' work.
func (r StaffRole) Supervises() bool {
	return r == StaffRoleAdmin || r == StaffRoleManager
}

// StaffMember models an employee, manager or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	DepartmentID *string
	Position     string
	Phone        string
	HireDate     *time.Time
	Active       bool
	WarningLevel WarningLevel
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
