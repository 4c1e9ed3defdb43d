package domain

import "time"

// TaskHistory is an immutable audit trail entry for a status change.
type TaskHistory struct {
	ID         string
	TaskID     string
	ChangedBy  *string
	FromStatus TaskStatus
	ToStatus   TaskStatus
	Note       string
	CreatedAt  time.Time
}
