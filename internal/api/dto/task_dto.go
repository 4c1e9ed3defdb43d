package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	AssigneeID           string              `json:"assignee_id"`
	Priority             domain.TaskPriority `json:"priority"`
	RequiresVerification *bool               `json:"requires_verification"`
	DueAt                *time.Time          `json:"due_at"`
	ShiftID              *string             `json:"shift_id"`
	Tags                 []string            `json:"tags"`
}

// UpdateTaskRequest payload; omitted fields are left untouched.
type UpdateTaskRequest struct {
	Title                *string              `json:"title"`
	Description          *string              `json:"description"`
	AssigneeID           *string              `json:"assignee_id"`
	Priority             *domain.TaskPriority `json:"priority"`
	RequiresVerification *bool                `json:"requires_verification"`
	DueAt                *time.Time           `json:"due_at"`
	ShiftID              *string              `json:"shift_id"`
	Tags                 []string             `json:"tags"`
}

// TaskStatusRequest payload for PATCH /api/tasks/:id/status.
type TaskStatusRequest struct {
	Status domain.TaskStatus `json:"status"`
	Note   string            `json:"note"`
}

// TaskResponse view.
type TaskResponse struct {
	ID                   string              `json:"id"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	AssigneeID           string              `json:"assignee_id"`
	CreatedBy            string              `json:"created_by"`
	Priority             domain.TaskPriority `json:"priority"`
	Status               domain.TaskStatus   `json:"status"`
	RequiresVerification bool                `json:"requires_verification"`
	DueAt                *time.Time          `json:"due_at"`
	ShiftID              *string             `json:"shift_id"`
	Tags                 []string            `json:"tags"`
	CompletedAt          *time.Time          `json:"completed_at"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// TaskHistoryResponse represents one audit entry.
type TaskHistoryResponse struct {
	ID         string            `json:"id"`
	ChangedBy  *string           `json:"changed_by"`
	FromStatus domain.TaskStatus `json:"from_status"`
	ToStatus   domain.TaskStatus `json:"to_status"`
	Note       string            `json:"note"`
	CreatedAt  time.Time         `json:"created_at"`
}
