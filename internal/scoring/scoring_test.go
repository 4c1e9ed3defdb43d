package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestScoreTasks(t *testing.T) {
	due := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	early := due.Add(-time.Hour)
	late := due.Add(time.Hour)

	tasks := []domain.Task{
		{Status: domain.TaskStatusCompleted, DueAt: &due, CompletedAt: &early},
		{Status: domain.TaskStatusCompleted, DueAt: &due, CompletedAt: &late},
		{Status: domain.TaskStatusOverdue, DueAt: &due},
		{Status: domain.TaskStatusCancelled, DueAt: &due},
	}
	stats := ScoreTasks(tasks)
	require.NotNil(t, stats.Score)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 50.0, *stats.Score)

	assert.Nil(t, ScoreTasks(nil).Score)
	assert.Nil(t, ScoreTasks([]domain.Task{{Status: domain.TaskStatusCancelled}}).Score)
}

func TestScoreShifts(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	ended := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	shifts := []domain.Shift{
		{Status: domain.ShiftStatusCompleted, EndAt: ended},
		{Status: domain.ShiftStatusCompleted, EndAt: ended, Late: true},
		{Status: domain.ShiftStatusMissed, EndAt: ended},
		{Status: domain.ShiftStatusScheduled, EndAt: ended},
		{Status: domain.ShiftStatusScheduled, EndAt: future},
		{Status: domain.ShiftStatusCancelled, EndAt: ended},
	}
	stats := ScoreShifts(shifts, now)
	require.NotNil(t, stats.Score)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.OnTime)
	assert.Equal(t, 37.5, *stats.Score)
}

func TestScoreQuality(t *testing.T) {
	got := ScoreQuality([]domain.Verification{
		{Status: domain.VerificationApproved, QualityRating: ptr(5)},
		{Status: domain.VerificationApproved, QualityRating: ptr(3)},
		{Status: domain.VerificationRejected},
		{Status: domain.VerificationPending},
	})
	require.NotNil(t, got)
	assert.Equal(t, 53.33, *got)
	assert.Nil(t, ScoreQuality([]domain.Verification{{Status: domain.VerificationPending}}))
}

func TestOverallRenormalisesMissingComponents(t *testing.T) {
	w := config.DefaultPolicy().Scoring.Weights

	all, err := Overall(Components{Tasks: ptr(100.0), Punctuality: ptr(50.0), Quality: ptr(80.0), Rating: ptr(60.0)}, w)
	require.NoError(t, err)
	// 0.4*100 + 0.2*50 + 0.25*80 + 0.15*60 = 79
	assert.Equal(t, 79.0, all)

	partial, err := Overall(Components{Tasks: ptr(100.0), Punctuality: ptr(50.0)}, w)
	require.NoError(t, err)
	// (40 + 10) / 0.6
	assert.Equal(t, 83.33, partial)

	_, err = Overall(Components{}, w)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Overall(Components{Rating: ptr(100.0)}, config.ScoreWeights{Tasks: 1})
	assert.ErrorIs(t, err, ErrNoData, "components with zero weight do not count as data")
}

func TestGradeFor(t *testing.T) {
	g := config.DefaultPolicy().Scoring.Grades
	cases := map[float64]domain.Grade{
		100: domain.GradeA, 90: domain.GradeA, 89.99: domain.GradeB,
		80: domain.GradeB, 75: domain.GradeC, 60: domain.GradeD, 59.99: domain.GradeF, 0: domain.GradeF,
	}
	for score, want := range cases {
		assert.Equal(t, want, GradeFor(score, g), "score %v", score)
	}
}

func TestEffectiveLevel(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	warnings := []domain.Warning{
		{Level: domain.WarningLevelVerbal},
		{Level: domain.WarningLevelFinal, ExpiresAt: &past},
		{Level: domain.WarningLevelWritten, ExpiresAt: &future},
		{Level: domain.WarningLevelTerminationReview, RevokedAt: &past},
	}
	assert.Equal(t, domain.WarningLevelWritten, EffectiveLevel(warnings, now))
	assert.Equal(t, domain.WarningLevelNone, EffectiveLevel(nil, now))
}

func TestNextLevel(t *testing.T) {
	lvl, err := NextLevel(domain.WarningLevelNone, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.WarningLevelVerbal, lvl)

	lvl, err = NextLevel(domain.WarningLevelVerbal, ptr(domain.WarningLevelFinal))
	require.NoError(t, err)
	assert.Equal(t, domain.WarningLevelFinal, lvl, "explicit level may skip ahead")

	_, err = NextLevel(domain.WarningLevelWritten, ptr(domain.WarningLevelVerbal))
	assert.ErrorIs(t, err, ErrDeescalation)

	_, err = NextLevel(domain.WarningLevelTerminationReview, nil)
	assert.ErrorIs(t, err, ErrTopLevel)
}
