package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// SubmitVerificationRequest payload.
type SubmitVerificationRequest struct {
	TaskID       string   `json:"task_id"`
	Notes        string   `json:"notes"`
	EvidenceURLs []string `json:"evidence_urls"`
}

// ReviewVerificationRequest payload for approve and reject.
type ReviewVerificationRequest struct {
	QualityRating *int   `json:"quality_rating"`
	Comment       string `json:"comment"`
}

// VerificationResponse view.
type VerificationResponse struct {
	ID            string                    `json:"id"`
	TaskID        string                    `json:"task_id"`
	SubmittedBy   string                    `json:"submitted_by"`
	Notes         string                    `json:"notes"`
	EvidenceURLs  []string                  `json:"evidence_urls"`
	Status        domain.VerificationStatus `json:"status"`
	ReviewerID    *string                   `json:"reviewer_id"`
	ReviewComment string                    `json:"review_comment"`
	QualityRating *int                      `json:"quality_rating"`
	SubmittedAt   time.Time                 `json:"submitted_at"`
	ReviewedAt    *time.Time                `json:"reviewed_at"`
}
