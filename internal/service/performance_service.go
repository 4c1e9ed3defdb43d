package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/report"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	"github.com/shiftdesk/staff-scheduler/internal/scoring"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// PerformanceService computes and stores staff evaluations.
type PerformanceService struct {
	records       repository.PerformanceRepository
	tasks         repository.TaskRepository
	shifts        repository.ShiftRepository
	verifications repository.VerificationRepository
	staff         repository.StaffRepository
	discipline    *DisciplineService
	dispatcher    events.Dispatcher
	policy        config.ScoringPolicy
	logger        *zap.Logger
	now           func() time.Time
}

// PerformanceDependencies bundles performance collaborators.
type PerformanceDependencies struct {
	PerformanceRepo  repository.PerformanceRepository
	TaskRepo         repository.TaskRepository
	ShiftRepo        repository.ShiftRepository
	VerificationRepo repository.VerificationRepository
	StaffRepo        repository.StaffRepository
	Discipline       *DisciplineService
	Dispatcher       events.Dispatcher
	Policy           config.ScoringPolicy
	Logger           *zap.Logger
	Clock            func() time.Time
}

// EvaluationInput describes an evaluation request.
type EvaluationInput struct {
	StaffID       string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	ManagerRating *int
	Comments      string
}

// PerformanceListFilters narrows record listings.
type PerformanceListFilters struct {
	StaffID      *string
	DepartmentID *string
	Grade        *domain.Grade
	From         *time.Time
	To           *time.Time
	Page
}

// PerformanceSummary condenses the most recent evaluations of a staff member.
type PerformanceSummary struct {
	StaffID string                    `json:"staff_id"`
	Latest  *domain.PerformanceRecord `json:"-"`
	Count   int                       `json:"count"`
	Average *float64                  `json:"average"`
	// Trend is latest minus previous overall score.
	Trend *float64 `json:"trend"`
}

// NewPerformanceService constructs the service.
func NewPerformanceService(deps PerformanceDependencies) *PerformanceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{
		records:       deps.PerformanceRepo,
		tasks:         deps.TaskRepo,
		shifts:        deps.ShiftRepo,
		verifications: deps.VerificationRepo,
		staff:         deps.StaffRepo,
		discipline:    deps.Discipline,
		dispatcher:    deps.Dispatcher,
		policy:        deps.Policy,
		logger:        logger,
		now:           clockOrDefault(deps.Clock),
	}
}

// Evaluate scores a staff member over a period and applies the grade consequences.
func (s *PerformanceService) Evaluate(ctx context.Context, actor *domain.StaffMember, input EvaluationInput) (*domain.PerformanceRecord, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	if input.StaffID == actor.ID {
		return nil, apperrors.NewForbidden("cannot evaluate yourself")
	}
	start, end := input.PeriodStart.UTC(), input.PeriodEnd.UTC()
	if start.IsZero() || !end.After(start) {
		return nil, apperrors.NewValidationError("period_end must be after period_start", nil)
	}
	if r := input.ManagerRating; r != nil && (*r < 1 || *r > 5) {
		return nil, apperrors.NewValidationError("manager_rating must be between 1 and 5", map[string]any{"manager_rating": *r})
	}
	if _, err := s.staff.GetByID(ctx, input.StaffID); err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"id": input.StaffID})
	}

	tasks, err := s.tasks.ListForPeriod(ctx, input.StaffID, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	shifts, err := s.shiftsStartingIn(ctx, input.StaffID, start, end)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.verifications.ListReviewedForStaff(ctx, input.StaffID, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	taskStats := scoring.ScoreTasks(tasks)
	shiftStats := scoring.ScoreShifts(shifts, s.now())
	components := scoring.Components{
		Tasks:       taskStats.Score,
		Punctuality: shiftStats.Score,
		Quality:     scoring.ScoreQuality(reviewed),
		Rating:      scoring.ScoreRating(input.ManagerRating),
	}
	overall, err := scoring.Overall(components, s.policy.Weights)
	if err != nil {
		return nil, apperrors.NewUnprocessable("insufficient data to evaluate this period", map[string]any{
			"staff_id":     input.StaffID,
			"period_start": start,
			"period_end":   end,
		})
	}

	record := &domain.PerformanceRecord{
		StaffID:          input.StaffID,
		EvaluatorID:      actor.ID,
		PeriodStart:      start,
		PeriodEnd:        end,
		TaskScore:        components.Tasks,
		PunctualityScore: components.Punctuality,
		QualityScore:     components.Quality,
		RatingScore:      components.Rating,
		OverallScore:     overall,
		Grade:            scoring.GradeFor(overall, s.policy.Grades),
		TasksTotal:       taskStats.Total,
		TasksCompleted:   taskStats.Completed,
		ShiftsTotal:      shiftStats.Total,
		ShiftsOnTime:     shiftStats.OnTime,
		Comments:         strings.TrimSpace(input.Comments),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventPerformanceEvaluated,
		SubjectID: record.ID,
		ActorID:   actor.ID,
		Payload: events.PerformanceEvaluatedPayload{
			StaffID:      record.StaffID,
			OverallScore: record.OverallScore,
			Grade:        record.Grade,
			Flagged:      record.Grade.AtOrBelow(domain.Grade(s.policy.AlertGrade)),
		},
	})
	if record.Grade.AtOrBelow(domain.Grade(s.policy.WarningGrade)) && s.discipline != nil {
		reason := fmt.Sprintf("Performance grade %s (%.2f) for %s to %s",
			record.Grade, record.OverallScore, start.Format("2006-01-02"), end.Format("2006-01-02"))
		if _, err := s.discipline.issueAutomatic(ctx, record.StaffID, reason); err != nil {
			if de := apperrors.ToDomainError(err); de.HTTPStatus >= 500 {
				return nil, err
			}
			s.logger.Warn("automatic warning skipped", zap.String("staff_id", record.StaffID), zap.Error(err))
		}
	}
	return record, nil
}

// GetRecord fetches an evaluation visible to actor.
func (s *PerformanceService) GetRecord(ctx context.Context, actor *domain.StaffMember, id string) (*domain.PerformanceRecord, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "performance record", map[string]any{"id": id})
	}
	if !canSee(actor, record.StaffID) {
		return nil, apperrors.NewForbidden("record belongs to someone else")
	}
	return record, nil
}

// ListRecords lists evaluations; employees only see their own.
func (s *PerformanceService) ListRecords(ctx context.Context, actor *domain.StaffMember, filters PerformanceListFilters) ([]domain.PerformanceRecord, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repoFilter := s.repoFilter(filters)
	if !actor.Role.Supervises() {
		repoFilter.StaffID = &actor.ID
		repoFilter.DepartmentID = nil
	}
	records, err := s.records.List(ctx, repoFilter)
	return records, apperrors.MapError(err)
}

// Summary reports the latest record, the average over the summary window and the trend.
func (s *PerformanceService) Summary(ctx context.Context, actor *domain.StaffMember, staffID string) (*PerformanceSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !canSee(actor, staffID) {
		return nil, apperrors.NewForbidden("cannot view another staff member's performance")
	}
	window := s.policy.SummaryWindow
	if window <= 0 {
		window = 5
	}
	recent, err := s.records.ListRecentByStaff(ctx, staffID, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	summary := &PerformanceSummary{StaffID: staffID, Count: len(recent)}
	if len(recent) == 0 {
		return summary, nil
	}
	summary.Latest = &recent[0]
	var sum float64
	for _, r := range recent {
		sum += r.OverallScore
	}
	avg := math.Round(sum/float64(len(recent))*100) / 100
	summary.Average = &avg
	if len(recent) > 1 {
		trend := math.Round((recent[0].OverallScore-recent[1].OverallScore)*100) / 100
		summary.Trend = &trend
	}
	return summary, nil
}

// Export writes matching evaluations as an xlsx workbook.
func (s *PerformanceService) Export(ctx context.Context, actor *domain.StaffMember, w io.Writer, filters PerformanceListFilters) error {
	if err := requireSupervisor(actor); err != nil {
		return err
	}
	repoFilter := s.repoFilter(filters)
	repoFilter.Limit, repoFilter.Offset = exportLimit, 0
	records, err := s.records.List(ctx, repoFilter)
	if err != nil {
		return apperrors.MapError(err)
	}
	names := newNameCache(s.staff)
	rows := make([]report.PerformanceRow, 0, len(records))
	for _, rec := range records {
		name, err := names.lookup(ctx, rec.StaffID)
		if err != nil {
			return err
		}
		rows = append(rows, report.PerformanceRow{Record: rec, StaffName: name})
	}
	if err := report.WritePerformance(w, rows); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *PerformanceService) repoFilter(filters PerformanceListFilters) repository.PerformanceFilter {
	return repository.PerformanceFilter{
		StaffID:      filters.StaffID,
		DepartmentID: filters.DepartmentID,
		Grade:        filters.Grade,
		From:         filters.From,
		To:           filters.To,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}
}

func (s *PerformanceService) shiftsStartingIn(ctx context.Context, staffID string, start, end time.Time) ([]domain.Shift, error) {
	all, err := s.shifts.List(ctx, repository.ShiftFilter{StaffID: &staffID, From: &start, To: &end, Limit: exportLimit})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := all[:0]
	for _, shift := range all {
		if !shift.StartAt.Before(start) && shift.StartAt.Before(end) {
			out = append(out, shift)
		}
	}
	return out, nil
}
