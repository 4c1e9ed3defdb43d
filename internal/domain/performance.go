package domain

import "time"

// Grade is the letter grade derived from an overall score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// AtOrBelow reports whether g is the same as or worse than other.
func (g Grade) AtOrBelow(other Grade) bool {
	return gradeRank(g) <= gradeRank(other)
}

func gradeRank(g Grade) int {
	switch g {
	case GradeA:
		return 4
	case GradeB:
		return 3
	case GradeC:
		return 2
	case GradeD:
		return 1
	}
	return 0
}

// PerformanceRecord stores an evaluation for one staff member over a period.
// Component scores are nil when the period had no data for them.
type PerformanceRecord struct {
	ID               string
	StaffID          string
	EvaluatorID      string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TaskScore        *float64
	PunctualityScore *float64
	QualityScore     *float64
	RatingScore      *float64
	OverallScore     float64
	Grade            Grade
	TasksTotal       int
	TasksCompleted   int
	ShiftsTotal      int
	ShiftsOnTime     int
	Comments         string
	CreatedAt        time.Time
}
