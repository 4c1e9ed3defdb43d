package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/report"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const exportLimit = 5000

// ScheduleService manages shifts and attendance.
type ScheduleService struct {
	shifts     repository.ShiftRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	policy     config.SchedulePolicy
	now        func() time.Time
}

// ScheduleDependencies bundles schedule collaborators.
type ScheduleDependencies struct {
	ShiftRepo  repository.ShiftRepository
	StaffRepo  repository.StaffRepository
	Dispatcher events.Dispatcher
	Policy     config.SchedulePolicy
	Clock      func() time.Time
}

// ShiftInput describes a new shift.
type ShiftInput struct {
	StaffID   string
	StartAt   time.Time
	EndAt     time.Time
	ShiftType domain.ShiftType
	Location  string
	Notes     string
}

// ShiftUpdate carries optional field changes.
type ShiftUpdate struct {
	StaffID   *string
	StartAt   *time.Time
	EndAt     *time.Time
	ShiftType *domain.ShiftType
	Location  *string
	Notes     *string
}

// ShiftListFilters narrows schedule listings. A nil range means the current week.
type ShiftListFilters struct {
	StaffID      *string
	DepartmentID *string
	Statuses     []domain.ShiftStatus
	From         *time.Time
	To           *time.Time
	Page
}

// NewScheduleService constructs the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	return &ScheduleService{
		shifts:     deps.ShiftRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
		now:        clockOrDefault(deps.Clock),
	}
}

// CreateShift schedules a shift after checking length and conflicts.
func (s *ScheduleService) CreateShift(ctx context.Context, actor *domain.StaffMember, input ShiftInput) (*domain.Shift, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	shiftType := input.ShiftType
	if shiftType == "" {
		shiftType = domain.ShiftTypeCustom
	}
	shift := &domain.Shift{
		StaffID:   input.StaffID,
		StartAt:   input.StartAt.UTC(),
		EndAt:     input.EndAt.UTC(),
		ShiftType: shiftType,
		Location:  strings.TrimSpace(input.Location),
		Notes:     strings.TrimSpace(input.Notes),
		Status:    domain.ShiftStatusScheduled,
		CreatedBy: actor.ID,
	}
	if err := s.validate(ctx, shift); err != nil {
		return nil, err
	}
	if err := s.shifts.Create(ctx, shift); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishShift(ctx, events.EventShiftScheduled, shift, actor.ID)
	return shift, nil
}

// UpdateShift edits a shift that has not started being worked.
func (s *ScheduleService) UpdateShift(ctx context.Context, actor *domain.StaffMember, id string, input ShiftUpdate) (*domain.Shift, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusScheduled {
		return nil, apperrors.NewConflict("only scheduled shifts can be edited", map[string]any{"status": shift.Status})
	}
	if input.StaffID != nil {
		shift.StaffID = *input.StaffID
	}
	if input.StartAt != nil {
		shift.StartAt = input.StartAt.UTC()
	}
	if input.EndAt != nil {
		shift.EndAt = input.EndAt.UTC()
	}
	if input.ShiftType != nil {
		shift.ShiftType = *input.ShiftType
	}
	if input.Location != nil {
		shift.Location = strings.TrimSpace(*input.Location)
	}
	if input.Notes != nil {
		shift.Notes = strings.TrimSpace(*input.Notes)
	}
	if err := s.validate(ctx, shift); err != nil {
		return nil, err
	}
	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, apperrors.NotFoundOr(err, "shift", map[string]any{"id": id})
	}
	s.publishShift(ctx, events.EventShiftUpdated, shift, actor.ID)
	return shift, nil
}

// CancelShift marks a scheduled shift as cancelled.
func (s *ScheduleService) CancelShift(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Shift, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusScheduled {
		return nil, apperrors.NewConflict("only scheduled shifts can be cancelled", map[string]any{"status": shift.Status})
	}
	shift.Status = domain.ShiftStatusCancelled
	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, apperrors.NotFoundOr(err, "shift", map[string]any{"id": id})
	}
	s.publishShift(ctx, events.EventShiftCancelled, shift, actor.ID)
	return shift, nil
}

// DeleteShift removes a shift permanently.
func (s *ScheduleService) DeleteShift(ctx context.Context, actor *domain.StaffMember, id string) error {
	if err := requireSupervisor(actor); err != nil {
		return err
	}
	return apperrors.NotFoundOr(s.shifts.Delete(ctx, id), "shift", map[string]any{"id": id})
}

// GetShift fetches a shift visible to actor.
func (s *ScheduleService) GetShift(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, shift.StaffID) {
		return nil, apperrors.NewForbidden("shift belongs to someone else")
	}
	return shift, nil
}

// ListShifts lists shifts in a date range; employees only see their own.
func (s *ScheduleService) ListShifts(ctx context.Context, actor *domain.StaffMember, filters ShiftListFilters) ([]domain.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repoFilter, err := s.rangeFilter(filters)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Supervises() {
		repoFilter.StaffID = &actor.ID
		repoFilter.DepartmentID = nil
	}
	shifts, err := s.shifts.List(ctx, repoFilter)
	return shifts, apperrors.MapError(err)
}

// CheckIn records attendance inside [start - early window, end).
func (s *ScheduleService) CheckIn(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Shift, error) {
	shift, err := s.ownShift(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusScheduled {
		return nil, apperrors.NewConflict("shift is not awaiting check-in", map[string]any{"status": shift.Status})
	}
	now := s.now()
	opens := shift.StartAt.Add(-s.policy.EarlyCheckIn())
	if now.Before(opens) || !now.Before(shift.EndAt) {
		return nil, apperrors.NewValidationError("outside the check-in window", map[string]any{
			"opens_at":  opens,
			"closes_at": shift.EndAt,
		})
	}
	shift.Status = domain.ShiftStatusCheckedIn
	shift.CheckedInAt = &now
	shift.Late = now.After(shift.StartAt.Add(s.policy.Grace()))
	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, apperrors.NotFoundOr(err, "shift", map[string]any{"id": id})
	}
	return shift, nil
}

// CheckOut completes a checked-in shift.
func (s *ScheduleService) CheckOut(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Shift, error) {
	shift, err := s.ownShift(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusCheckedIn {
		return nil, apperrors.NewConflict("shift is not checked in", map[string]any{"status": shift.Status})
	}
	now := s.now()
	shift.Status = domain.ShiftStatusCompleted
	shift.CheckedOutAt = &now
	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, apperrors.NotFoundOr(err, "shift", map[string]any{"id": id})
	}
	return shift, nil
}

// Export writes the shifts matching filters as an xlsx workbook.
func (s *ScheduleService) Export(ctx context.Context, actor *domain.StaffMember, w io.Writer, filters ShiftListFilters) error {
	if err := requireSupervisor(actor); err != nil {
		return err
	}
	repoFilter, err := s.rangeFilter(filters)
	if err != nil {
		return err
	}
	repoFilter.Limit, repoFilter.Offset = exportLimit, 0
	shifts, err := s.shifts.List(ctx, repoFilter)
	if err != nil {
		return apperrors.MapError(err)
	}
	names := newNameCache(s.staff)
	rows := make([]report.ScheduleRow, 0, len(shifts))
	for _, shift := range shifts {
		name, err := names.lookup(ctx, shift.StaffID)
		if err != nil {
			return err
		}
		rows = append(rows, report.ScheduleRow{Shift: shift, StaffName: name})
	}
	if err := report.WriteSchedule(w, rows); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// MarkMissed flags scheduled shifts that ended without a check-in.
func (s *ScheduleService) MarkMissed(ctx context.Context, now time.Time) (int, error) {
	shifts, err := s.shifts.ListEndedScheduled(ctx, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for i := range shifts {
		shift := &shifts[i]
		shift.Status = domain.ShiftStatusMissed
		if err := s.shifts.Update(ctx, shift); err != nil {
			return i, apperrors.MapError(err)
		}
		s.publishShift(ctx, events.EventShiftMissed, shift, "")
	}
	return len(shifts), nil
}

func (s *ScheduleService) validate(ctx context.Context, shift *domain.Shift) error {
	if !shift.ShiftType.Valid() {
		return apperrors.NewValidationError("invalid shift type", map[string]any{"shift_type": shift.ShiftType})
	}
	if shift.StartAt.IsZero() || shift.EndAt.IsZero() {
		return apperrors.NewValidationError("start_at and end_at are required", nil)
	}
	if !shift.EndAt.After(shift.StartAt) {
		return apperrors.NewValidationError("end_at must be after start_at", nil)
	}
	if shift.Duration() > s.policy.MaxShift() {
		return apperrors.NewValidationError("shift exceeds maximum length", map[string]any{"max_hours": s.policy.MaxShiftHours})
	}
	staff, err := s.staff.GetByID(ctx, shift.StaffID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("staff member does not exist", map[string]any{"staff_id": shift.StaffID})
		}
		return apperrors.MapError(err)
	}
	if !staff.Active {
		return apperrors.NewValidationError("staff member is inactive", map[string]any{"staff_id": shift.StaffID})
	}
	overlapping, err := s.shifts.FindOverlapping(ctx, shift.StaffID, shift.StartAt, shift.EndAt, shift.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(overlapping) > 0 {
		return apperrors.NewConflict("shift overlaps an existing shift", map[string]any{
			"conflicting_shift_id": overlapping[0].ID,
		})
	}
	return nil
}

func (s *ScheduleService) rangeFilter(filters ShiftListFilters) (repository.ShiftFilter, error) {
	from, to := weekBounds(s.now())
	if filters.From != nil {
		from = filters.From.UTC()
	}
	if filters.To != nil {
		to = filters.To.UTC()
	} else if filters.From != nil {
		to = from.AddDate(0, 0, 7)
	}
	if !to.After(from) {
		return repository.ShiftFilter{}, apperrors.NewValidationError("to must be after from", nil)
	}
	return repository.ShiftFilter{
		StaffID:      filters.StaffID,
		DepartmentID: filters.DepartmentID,
		Statuses:     filters.Statuses,
		From:         &from,
		To:           &to,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}, nil
}

func (s *ScheduleService) ownShift(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.StaffID != actor.ID {
		return nil, apperrors.NewForbidden("only the scheduled staff member can check in or out")
	}
	return shift, nil
}

func (s *ScheduleService) load(ctx context.Context, id string) (*domain.Shift, error) {
	shift, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "shift", map[string]any{"id": id})
	}
	return shift, nil
}

func (s *ScheduleService) publishShift(ctx context.Context, eventType events.EventType, shift *domain.Shift, actorID string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:      eventType,
		SubjectID: shift.ID,
		ActorID:   actorID,
		Payload: events.ShiftPayload{
			StaffID:   shift.StaffID,
			StartAt:   shift.StartAt,
			EndAt:     shift.EndAt,
			ShiftType: shift.ShiftType,
			Location:  shift.Location,
		},
	})
}

// nameCache memoizes staff display names for exports.
type nameCache struct {
	staff repository.StaffRepository
	names map[string]string
}

func newNameCache(staff repository.StaffRepository) *nameCache {
	return &nameCache{staff: staff, names: map[string]string{}}
}

func (c *nameCache) lookup(ctx context.Context, id string) (string, error) {
	if name, ok := c.names[id]; ok {
		return name, nil
	}
	member, err := c.staff.GetByID(ctx, id)
	switch {
	case err == nil:
		c.names[id] = member.Name
	case apperrors.IsNotFound(err):
		c.names[id] = id
	default:
		return "", apperrors.MapError(err)
	}
	return c.names[id], nil
}
