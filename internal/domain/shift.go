package domain

import "time"

// ShiftStatus enumerates lifecycle states for scheduled shifts.
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "SCHEDULED"
	ShiftStatusCheckedIn ShiftStatus = "CHECKED_IN"
	ShiftStatusCompleted ShiftStatus = "COMPLETED"
	ShiftStatusMissed    ShiftStatus = "MISSED"
	ShiftStatusCancelled ShiftStatus = "CANCELLED"
)

// ShiftType classifies a shift by time of day.
type ShiftType string

const (
	ShiftTypeMorning   ShiftType = "MORNING"
	ShiftTypeAfternoon ShiftType = "AFTERNOON"
	ShiftTypeNight     ShiftType = "NIGHT"
	ShiftTypeCustom    ShiftType = "CUSTOM"
)

// Valid reports whether t is a known shift type.
func (t ShiftType) Valid() bool {
	switch t {
	case ShiftTypeMorning, ShiftTypeAfternoon, ShiftTypeNight, ShiftTypeCustom:
		return true
	}
	return false
}

// Shift is one schedule entry for a staff member.
type Shift struct {
	ID           string
	StaffID      string
	StartAt      time.Time
	EndAt        time.Time
	ShiftType    ShiftType
	Location     string
	Notes        string
	Status       ShiftStatus
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
	Late         bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Duration returns the planned length of the shift.
func (s *Shift) Duration() time.Duration {
	return s.EndAt.Sub(s.StartAt)
}

// Overlaps reports whether the half-open intervals [StartAt, EndAt) intersect.
func (s *Shift) Overlaps(start, end time.Time) bool {
	return s.StartAt.Before(end) && start.Before(s.EndAt)
}
