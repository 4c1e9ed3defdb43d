package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	"github.com/shiftdesk/staff-scheduler/internal/scoring"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// DisciplineService issues and tracks disciplinary warnings.
type DisciplineService struct {
	warnings   repository.WarningRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	policy     config.DisciplinePolicy
	now        func() time.Time
}

// DisciplineDependencies bundles discipline collaborators.
type DisciplineDependencies struct {
	WarningRepo repository.WarningRepository
	StaffRepo   repository.StaffRepository
	Dispatcher  events.Dispatcher
	Policy      config.DisciplinePolicy
	Clock       func() time.Time
}

// WarningInput describes a manually issued warning. A nil Level escalates one step.
type WarningInput struct {
	StaffID string
	Reason  string
	Level   *domain.WarningLevel
}

// WarningListFilters narrows warning listings.
type WarningListFilters struct {
	StaffID    *string
	ActiveOnly bool
	Page
}

// NewDisciplineService constructs the service.
func NewDisciplineService(deps DisciplineDependencies) *DisciplineService {
	return &DisciplineService{
		warnings:   deps.WarningRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
		now:        clockOrDefault(deps.Clock),
	}
}

// IssueWarning records a warning issued by a supervisor.
func (s *DisciplineService) IssueWarning(ctx context.Context, actor *domain.StaffMember, input WarningInput) (*domain.Warning, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	if input.StaffID == actor.ID {
		return nil, apperrors.NewForbidden("cannot issue a warning to yourself")
	}
	reason, err := requireText("reason", input.Reason, 2000)
	if err != nil {
		return nil, err
	}
	if input.Level != nil && (!input.Level.Valid() || *input.Level == domain.WarningLevelNone) {
		return nil, apperrors.NewValidationError("invalid warning level", map[string]any{"level": *input.Level})
	}
	return s.issue(ctx, input.StaffID, reason, input.Level, actor.ID)
}

// issueAutomatic escalates a staff member after a failing evaluation.
func (s *DisciplineService) issueAutomatic(ctx context.Context, staffID, reason string) (*domain.Warning, error) {
	return s.issue(ctx, staffID, reason, nil, "")
}

func (s *DisciplineService) issue(ctx context.Context, staffID, reason string, requested *domain.WarningLevel, issuerID string) (*domain.Warning, error) {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"id": staffID})
	}
	existing, err := s.warnings.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	current := scoring.EffectiveLevel(existing, now)
	level, err := scoring.NextLevel(current, requested)
	switch {
	case errors.Is(err, scoring.ErrTopLevel):
		return nil, apperrors.NewConflict("staff member is already at the highest warning level", map[string]any{"level": current})
	case errors.Is(err, scoring.ErrDeescalation):
		return nil, apperrors.NewValidationError("requested level is below the next escalation level", map[string]any{
			"current": current,
			"minimum": level,
		})
	}

	warning := &domain.Warning{
		StaffID:   staffID,
		Level:     level,
		Reason:    reason,
		Automatic: issuerID == "",
		IssuedAt:  now,
	}
	if issuerID != "" {
		warning.IssuedBy = strPtr(issuerID)
	}
	if level != domain.WarningLevelTerminationReview {
		expires := now.Add(s.policy.WarningTTL())
		warning.ExpiresAt = &expires
	}
	if err := s.warnings.Create(ctx, warning); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.staff.UpdateWarningLevel(ctx, staffID, level); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventWarningIssued,
		SubjectID: warning.ID,
		ActorID:   issuerID,
		Payload: events.WarningIssuedPayload{
			StaffID:   staffID,
			StaffName: staff.Name,
			Level:     level,
			Reason:    reason,
			Automatic: warning.Automatic,
		},
	})
	return warning, nil
}

// Acknowledge lets the warned staff member confirm receipt. Repeated calls are no-ops.
func (s *DisciplineService) Acknowledge(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Warning, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	warning, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if warning.StaffID != actor.ID {
		return nil, apperrors.NewForbidden("only the warned staff member can acknowledge")
	}
	if warning.RevokedAt != nil {
		return nil, apperrors.NewConflict("warning has been revoked", nil)
	}
	if warning.AcknowledgedAt != nil {
		return warning, nil
	}
	now := s.now()
	warning.AcknowledgedAt = &now
	if err := s.warnings.Update(ctx, warning); err != nil {
		return nil, apperrors.NotFoundOr(err, "warning", map[string]any{"id": id})
	}
	return warning, nil
}

// Revoke withdraws a warning and recomputes the staff member's level.
func (s *DisciplineService) Revoke(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Warning, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	warning, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if warning.RevokedAt != nil {
		return nil, apperrors.NewConflict("warning already revoked", nil)
	}
	now := s.now()
	warning.RevokedAt = &now
	if actor.ID != "" {
		warning.RevokedBy = strPtr(actor.ID)
	}
	if err := s.warnings.Update(ctx, warning); err != nil {
		return nil, apperrors.NotFoundOr(err, "warning", map[string]any{"id": id})
	}
	if _, err := s.Recompute(ctx, warning.StaffID); err != nil {
		return nil, err
	}
	return warning, nil
}

// ListWarnings lists warnings; employees only see their own.
func (s *DisciplineService) ListWarnings(ctx context.Context, actor *domain.StaffMember, filters WarningListFilters) ([]domain.Warning, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.WarningFilter{
		StaffID:    filters.StaffID,
		ActiveOnly: filters.ActiveOnly,
		Now:        s.now(),
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}
	if !actor.Role.Supervises() {
		repoFilter.StaffID = &actor.ID
	}
	items, err := s.warnings.List(ctx, repoFilter)
	return items, apperrors.MapError(err)
}

// Recompute refreshes the cached warning level of a staff member.
func (s *DisciplineService) Recompute(ctx context.Context, staffID string) (domain.WarningLevel, error) {
	warnings, err := s.warnings.ListByStaff(ctx, staffID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	level := scoring.EffectiveLevel(warnings, s.now())
	if err := s.staff.UpdateWarningLevel(ctx, staffID, level); err != nil {
		return "", apperrors.NotFoundOr(err, "staff", map[string]any{"id": staffID})
	}
	return level, nil
}

// RecomputeLapsed refreshes staff whose cached level is no longer backed by an active warning.
func (s *DisciplineService) RecomputeLapsed(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.warnings.StaffWithLapsedLevels(ctx, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for i, id := range ids {
		if _, err := s.Recompute(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

func (s *DisciplineService) load(ctx context.Context, id string) (*domain.Warning, error) {
	warning, err := s.warnings.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "warning", map[string]any{"id": id})
	}
	return warning, nil
}
