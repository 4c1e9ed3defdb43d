package domain

import "time"

// VerificationStatus is the review state of a completion submission.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s VerificationStatus) Valid() bool {
	return s == VerificationPending || s == VerificationApproved || s == VerificationRejected
}

// Verification is an assignee's claim that a task is done, awaiting review.
type Verification struct {
	ID            string
	TaskID        string
	SubmittedBy   string
	Notes         string
	EvidenceURLs  []string
	Status        VerificationStatus
	ReviewerID    *string
	ReviewComment string
	QualityRating *int
	SubmittedAt   time.Time
	ReviewedAt    *time.Time
}
