package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// CreateShiftRequest payload.
type CreateShiftRequest struct {
	StaffID   string           `json:"staff_id"`
	StartAt   time.Time        `json:"start_at"`
	EndAt     time.Time        `json:"end_at"`
	ShiftType domain.ShiftType `json:"shift_type"`
	Location  string           `json:"location"`
	Notes     string           `json:"notes"`
}

// UpdateShiftRequest payload; omitted fields are left untouched.
type UpdateShiftRequest struct {
	StaffID   *string           `json:"staff_id"`
	StartAt   *time.Time        `json:"start_at"`
	EndAt     *time.Time        `json:"end_at"`
	ShiftType *domain.ShiftType `json:"shift_type"`
	Location  *string           `json:"location"`
	Notes     *string           `json:"notes"`
}

// ShiftResponse view.
type ShiftResponse struct {
	ID           string             `json:"id"`
	StaffID      string             `json:"staff_id"`
	StartAt      time.Time          `json:"start_at"`
	EndAt        time.Time          `json:"end_at"`
	ShiftType    domain.ShiftType   `json:"shift_type"`
	Location     string             `json:"location"`
	Notes        string             `json:"notes"`
	Status       domain.ShiftStatus `json:"status"`
	CheckedInAt  *time.Time         `json:"checked_in_at"`
	CheckedOutAt *time.Time         `json:"checked_out_at"`
	Late         bool               `json:"late"`
	CreatedBy    string             `json:"created_by"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
