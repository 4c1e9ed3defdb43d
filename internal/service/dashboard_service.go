package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const dashboardListLimit = 50

// DashboardService aggregates read-only overviews.
type DashboardService struct {
	staff         repository.StaffRepository
	tasks         repository.TaskRepository
	shifts        repository.ShiftRepository
	verifications repository.VerificationRepository
	alerts        repository.AlertRepository
	performance   repository.PerformanceRepository
	now           func() time.Time
}

// DashboardDependencies bundles the repositories read by dashboards.
type DashboardDependencies struct {
	StaffRepo        repository.StaffRepository
	TaskRepo         repository.TaskRepository
	ShiftRepo        repository.ShiftRepository
	VerificationRepo repository.VerificationRepository
	AlertRepo        repository.AlertRepository
	PerformanceRepo  repository.PerformanceRepository
	Clock            func() time.Time
}

// AdminDashboard is the supervisor overview.
type AdminDashboard struct {
	ActiveStaff          int
	TasksByStatus        map[domain.TaskStatus]int
	PendingVerifications int
	ShiftsToday          []domain.Shift
	AtRiskStaff          []domain.StaffMember
	UnreadAlerts         int
}

// StaffDashboard is the personal overview of the caller.
type StaffDashboard struct {
	OpenTasks         []domain.Task
	UpcomingShifts    []domain.Shift
	UnreadAlerts      int
	LatestPerformance *domain.PerformanceRecord
	WarningLevel      domain.WarningLevel
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		staff:         deps.StaffRepo,
		tasks:         deps.TaskRepo,
		shifts:        deps.ShiftRepo,
		verifications: deps.VerificationRepo,
		alerts:        deps.AlertRepo,
		performance:   deps.PerformanceRepo,
		now:           clockOrDefault(deps.Clock),
	}
}

// Admin gathers the supervisor overview concurrently.
func (s *DashboardService) Admin(ctx context.Context, actor *domain.StaffMember) (*AdminDashboard, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var out AdminDashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active := true
		n, err := s.staff.Count(ctx, repository.StaffFilter{Active: &active})
		out.ActiveStaff = n
		return err
	})
	g.Go(func() error {
		counts, err := s.tasks.CountByStatus(ctx, nil)
		out.TasksByStatus = counts
		return err
	})
	g.Go(func() error {
		n, err := s.verifications.CountByStatus(ctx, domain.VerificationPending)
		out.PendingVerifications = n
		return err
	})
	g.Go(func() error {
		shifts, err := s.shifts.List(ctx, repository.ShiftFilter{
			From:     &dayStart,
			To:       &dayEnd,
			Statuses: []domain.ShiftStatus{domain.ShiftStatusScheduled, domain.ShiftStatusCheckedIn, domain.ShiftStatusCompleted, domain.ShiftStatusMissed},
			Limit:    exportLimit,
		})
		out.ShiftsToday = shifts
		return err
	})
	g.Go(func() error {
		active := true
		final := domain.WarningLevelFinal
		staff, err := s.staff.List(ctx, repository.StaffFilter{Active: &active, MinWarningLevel: &final, Limit: dashboardListLimit})
		out.AtRiskStaff = staff
		return err
	})
	g.Go(func() error {
		n, err := s.alerts.CountUnread(ctx, actor.ID)
		out.UnreadAlerts = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}

// Me gathers the caller's personal overview concurrently.
func (s *DashboardService) Me(ctx context.Context, actor *domain.StaffMember) (*StaffDashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	now := s.now()
	horizon := now.AddDate(0, 0, 7)

	out := StaffDashboard{WarningLevel: actor.WarningLevel}
	if out.WarningLevel == "" {
		out.WarningLevel = domain.WarningLevelNone
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.tasks.List(ctx, repository.TaskFilter{
			AssigneeID: &actor.ID,
			Statuses:   []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress, domain.TaskStatusOverdue, domain.TaskStatusSubmitted},
			Limit:      dashboardListLimit,
		})
		out.OpenTasks = tasks
		return err
	})
	g.Go(func() error {
		shifts, err := s.shifts.List(ctx, repository.ShiftFilter{
			StaffID:  &actor.ID,
			From:     &now,
			To:       &horizon,
			Statuses: []domain.ShiftStatus{domain.ShiftStatusScheduled, domain.ShiftStatusCheckedIn},
			Limit:    dashboardListLimit,
		})
		out.UpcomingShifts = shifts
		return err
	})
	g.Go(func() error {
		n, err := s.alerts.CountUnread(ctx, actor.ID)
		out.UnreadAlerts = n
		return err
	})
	g.Go(func() error {
		recent, err := s.performance.ListRecentByStaff(ctx, actor.ID, 1)
		if len(recent) > 0 {
			out.LatestPerformance = &recent[0]
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}
