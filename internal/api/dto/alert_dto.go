package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// CreateAlertRequest payload. Without recipient_id the alert is broadcast to role,
// or to every active staff member when role is empty too.
type CreateAlertRequest struct {
	RecipientID *string              `json:"recipient_id"`
	Role        *domain.StaffRole    `json:"role"`
	Type        domain.AlertType     `json:"type"`
	Severity    domain.AlertSeverity `json:"severity"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	ReferenceID *string              `json:"reference_id"`
}

// AlertResponse view.
type AlertResponse struct {
	ID          string               `json:"id"`
	RecipientID string               `json:"recipient_id"`
	Type        domain.AlertType     `json:"type"`
	Severity    domain.AlertSeverity `json:"severity"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	ReferenceID *string              `json:"reference_id"`
	Read        bool                 `json:"read"`
	ReadAt      *time.Time           `json:"read_at"`
	CreatedAt   time.Time            `json:"created_at"`
}
