package dto

import (
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// EvaluateRequest payload for POST /api/performance/evaluate.
type EvaluateRequest struct {
	StaffID       string    `json:"staff_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	ManagerRating *int      `json:"manager_rating"`
	Comments      string    `json:"comments"`
}

// PerformanceResponse view.
type PerformanceResponse struct {
	ID               string       `json:"id"`
	StaffID          string       `json:"staff_id"`
	EvaluatorID      string       `json:"evaluator_id"`
	PeriodStart      time.Time    `json:"period_start"`
	PeriodEnd        time.Time    `json:"period_end"`
	TaskScore        *float64     `json:"task_score"`
	PunctualityScore *float64     `json:"punctuality_score"`
	QualityScore     *float64     `json:"quality_score"`
	RatingScore      *float64     `json:"rating_score"`
	OverallScore     float64      `json:"overall_score"`
	Grade            domain.Grade `json:"grade"`
	TasksTotal       int          `json:"tasks_total"`
	TasksCompleted   int          `json:"tasks_completed"`
	ShiftsTotal      int          `json:"shifts_total"`
	ShiftsOnTime     int          `json:"shifts_on_time"`
	Comments         string       `json:"comments"`
	CreatedAt        time.Time    `json:"created_at"`
}

// PerformanceSummaryResponse condenses recent evaluations.
type PerformanceSummaryResponse struct {
	StaffID string               `json:"staff_id"`
	Count   int                  `json:"count"`
	Average *float64             `json:"average"`
	Trend   *float64             `json:"trend"`
	Latest  *PerformanceResponse `json:"latest"`
}
