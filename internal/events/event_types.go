package events

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskAssigned          EventType = "task_assigned"
	EventTaskStatusChanged     EventType = "task_status_changed"
	EventShiftScheduled        EventType = "shift_scheduled"
	EventShiftUpdated          EventType = "shift_updated"
	EventShiftCancelled        EventType = "shift_cancelled"
	EventShiftMissed           EventType = "shift_missed"
	EventVerificationSubmitted EventType = "verification_submitted"
	EventVerificationReviewed  EventType = "verification_reviewed"
	EventWarningIssued         EventType = "warning_issued"
	EventPerformanceEvaluated  EventType = "performance_evaluated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	// ActorID is empty for events raised by background sweeps.
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	Title      string              `json:"title"`
	AssigneeID string              `json:"assignee_id"`
	Priority   domain.TaskPriority `json:"priority"`
	DueAt      *time.Time          `json:"due_at,omitempty"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	Title      string            `json:"title"`
	AssigneeID string            `json:"assignee_id"`
	CreatedBy  string            `json:"created_by"`
	OldStatus  domain.TaskStatus `json:"old_status"`
	NewStatus  domain.TaskStatus `json:"new_status"`
	Note       string            `json:"note,omitempty"`
}

// ShiftPayload is shared by all shift events.
type ShiftPayload struct {
	StaffID   string           `json:"staff_id"`
	StartAt   time.Time        `json:"start_at"`
	EndAt     time.Time        `json:"end_at"`
	ShiftType domain.ShiftType `json:"shift_type"`
	Location  string           `json:"location,omitempty"`
}

// VerificationPayload is shared by submission and review events.
type VerificationPayload struct {
	TaskID        string                    `json:"task_id"`
	TaskTitle     string                    `json:"task_title"`
	TaskCreatedBy string                    `json:"task_created_by"`
	SubmittedBy   string                    `json:"submitted_by"`
	Status        domain.VerificationStatus `json:"status"`
	Comment       string                    `json:"comment,omitempty"`
}

// WarningIssuedPayload payload.
type WarningIssuedPayload struct {
	StaffID   string              `json:"staff_id"`
	StaffName string              `json:"staff_name"`
	Level     domain.WarningLevel `json:"level"`
	Reason    string              `json:"reason"`
	Automatic bool                `json:"automatic"`
}

// PerformanceEvaluatedPayload payload.
type PerformanceEvaluatedPayload struct {
	StaffID      string       `json:"staff_id"`
	OverallScore float64      `json:"overall_score"`
	Grade        domain.Grade `json:"grade"`
	// Flagged is set when the grade is at or below the alert threshold.
	Flagged bool `json:"flagged"`
}
