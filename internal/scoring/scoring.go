// Package scoring holds the performance aggregation and warning escalation rules.
package scoring

import (
	"errors"
	"math"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

var (
	// ErrNoData is returned when no score component had any input.
	ErrNoData = errors.New("no performance data for period")
	// ErrTopLevel is returned when escalating past the last warning level.
	ErrTopLevel = errors.New("warning level already at maximum")
	// ErrDeescalation is returned when a requested level is below the next level.
	ErrDeescalation = errors.New("requested warning level is below the next escalation level")
)

// Components carries the per-dimension scores on a 0..100 scale; nil means no data.
type Components struct {
	Tasks       *float64
	Punctuality *float64
	Quality     *float64
	Rating      *float64
}

// TaskStats summarizes task outcomes for a period.
type TaskStats struct {
	Score     *float64
	Total     int
	Completed int
}

// ShiftStats summarizes attendance for a period.
type ShiftStats struct {
	Score  *float64
	Total  int
	OnTime int
}

// ScoreTasks rates completion: on time counts 1, late counts half, anything else 0.
// Cancelled tasks are ignored.
func ScoreTasks(tasks []domain.Task) TaskStats {
	var stats TaskStats
	var sum float64
	for i := range tasks {
		t := &tasks[i]
		if t.Status == domain.TaskStatusCancelled {
			continue
		}
		stats.Total++
		if t.Status != domain.TaskStatusCompleted {
			continue
		}
		stats.Completed++
		if t.DueAt == nil || t.CompletedAt == nil || !t.CompletedAt.After(*t.DueAt) {
			sum++
		} else {
			sum += 0.5
		}
	}
	if stats.Total > 0 {
		stats.Score = percent(sum, stats.Total)
	}
	return stats
}

// ScoreShifts rates punctuality over shifts that have already ended.
// A scheduled shift whose end has passed is counted as missed.
func ScoreShifts(shifts []domain.Shift, now time.Time) ShiftStats {
	var stats ShiftStats
	var sum float64
	for i := range shifts {
		s := &shifts[i]
		if s.Status == domain.ShiftStatusCancelled || s.EndAt.After(now) {
			continue
		}
		stats.Total++
		switch s.Status {
		case domain.ShiftStatusCompleted, domain.ShiftStatusCheckedIn:
			if s.Late {
				sum += 0.5
			} else {
				sum++
				stats.OnTime++
			}
		}
	}
	if stats.Total > 0 {
		stats.Score = percent(sum, stats.Total)
	}
	return stats
}

// ScoreQuality averages reviewed verifications: approved counts rating*20, rejected 0.
func ScoreQuality(verifications []domain.Verification) *float64 {
	var sum float64
	count := 0
	for i := range verifications {
		v := &verifications[i]
		switch v.Status {
		case domain.VerificationApproved:
			count++
			if v.QualityRating != nil {
				sum += float64(*v.QualityRating) * 20
			} else {
				sum += 100
			}
		case domain.VerificationRejected:
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return round2(sum / float64(count))
}

// ScoreRating converts a 1..5 manager rating to the 0..100 scale.
func ScoreRating(rating *int) *float64 {
	if rating == nil {
		return nil
	}
	return round2(float64(*rating) * 20)
}

// Overall computes the weighted mean of the available components, renormalising
// the weights of the components that are present.
func Overall(c Components, w config.ScoreWeights) (float64, error) {
	var num, den float64
	add := func(score *float64, weight float64) {
		if score == nil || weight <= 0 {
			return
		}
		num += *score * weight
		den += weight
	}
	add(c.Tasks, w.Tasks)
	add(c.Punctuality, w.Punctuality)
	add(c.Quality, w.Quality)
	add(c.Rating, w.Rating)
	if den == 0 {
		return 0, ErrNoData
	}
	return *round2(num / den), nil
}

// GradeFor maps an overall score to a letter grade.
func GradeFor(score float64, g config.GradeThresholds) domain.Grade {
	switch {
	case score >= g.A:
		return domain.GradeA
	case score >= g.B:
		return domain.GradeB
	case score >= g.C:
		return domain.GradeC
	case score >= g.D:
		return domain.GradeD
	}
	return domain.GradeF
}

// EffectiveLevel is the highest level among warnings active at now.
func EffectiveLevel(warnings []domain.Warning, now time.Time) domain.WarningLevel {
	level := domain.WarningLevelNone
	for i := range warnings {
		w := &warnings[i]
		if !w.ActiveAt(now) {
			continue
		}
		if w.Level.Rank() > level.Rank() {
			level = w.Level
		}
	}
	return level
}

// NextLevel decides the level of a newly issued warning. Without a request the
// ladder advances one step; a request may skip ahead but never fall below the next step.
func NextLevel(current domain.WarningLevel, requested *domain.WarningLevel) (domain.WarningLevel, error) {
	next, ok := current.Next()
	if !ok {
		return current, ErrTopLevel
	}
	if requested == nil {
		return next, nil
	}
	if requested.Rank() < next.Rank() {
		return next, ErrDeescalation
	}
	return *requested, nil
}

func percent(sum float64, total int) *float64 {
	return round2(100 * sum / float64(total))
}

func round2(v float64) *float64 {
	r := math.Round(v*100) / 100
	return &r
}
