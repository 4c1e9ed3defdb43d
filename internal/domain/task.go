package domain

import "time"

// TaskStatus enumerates lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusOverdue    TaskStatus = "OVERDUE"
	TaskStatusSubmitted  TaskStatus = "SUBMITTED"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Open reports whether the task still expects work from its assignee.
func (s TaskStatus) Open() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusOverdue
}

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusCancelled, TaskStatusOverdue},
	TaskStatusInProgress: {TaskStatusSubmitted, TaskStatusCompleted, TaskStatusCancelled, TaskStatusOverdue},
	TaskStatusOverdue:    {TaskStatusSubmitted, TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusSubmitted:  {TaskStatusCompleted, TaskStatusInProgress},
	TaskStatusCompleted:  nil,
	TaskStatusCancelled:  nil,
}

// TaskPriority enumerates urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work assigned to a staff member.
type Task struct {
	ID                   string
	Title                string
	Description          string
	AssigneeID           string
	CreatedBy            string
	Priority             TaskPriority
	Status               TaskStatus
	RequiresVerification bool
	DueAt                *time.Time
	ShiftID              *string
	Tags                 []string
	CompletedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CanTransition reports whether the task may move to next. Direct completion is
// only possible for tasks that skip verification.
func (t *Task) CanTransition(next TaskStatus) bool {
	if next == TaskStatusCompleted && t.Status != TaskStatusSubmitted && t.RequiresVerification {
		return false
	}
	for _, allowed := range taskTransitions[t.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOverdueAt reports whether an open task has passed its due time.
func (t *Task) IsOverdueAt(now time.Time) bool {
	return t.DueAt != nil && (t.Status == TaskStatusPending || t.Status == TaskStatusInProgress) && now.After(*t.DueAt)
}
