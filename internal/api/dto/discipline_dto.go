package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// IssueWarningRequest payload. Level is optional and defaults to the next step.
type IssueWarningRequest struct {
	StaffID string               `json:"staff_id"`
	Reason  string               `json:"reason"`
	Level   *domain.WarningLevel `json:"level"`
}

// WarningResponse view.
type WarningResponse struct {
	ID             string              `json:"id"`
	StaffID        string              `json:"staff_id"`
	IssuedBy       *string             `json:"issued_by"`
	Level          domain.WarningLevel `json:"level"`
	Reason         string              `json:"reason"`
	Automatic      bool                `json:"automatic"`
	IssuedAt       time.Time           `json:"issued_at"`
	ExpiresAt      *time.Time          `json:"expires_at"`
	AcknowledgedAt *time.Time          `json:"acknowledged_at"`
	RevokedAt      *time.Time          `json:"revoked_at"`
	RevokedBy      *string             `json:"revoked_by"`
}
