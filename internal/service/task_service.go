package service

import (
	"context"
	"strings"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const maxTitleLength = 200

// TaskService coordinates task workflows.
type TaskService struct {
	tasks      repository.TaskRepository
	history    repository.TaskHistoryRepository
	staff      repository.StaffRepository
	shifts     repository.ShiftRepository
	dispatcher events.Dispatcher
	tx         repository.Transactor
	now        func() time.Time
}

// TaskDependencies bundles repositories for task service.
type TaskDependencies struct {
	TaskRepo    repository.TaskRepository
	HistoryRepo repository.TaskHistoryRepository
	StaffRepo   repository.StaffRepository
	ShiftRepo   repository.ShiftRepository
	Dispatcher  events.Dispatcher
	Transactor  repository.Transactor
	Clock       func() time.Time
}

// TaskInput describes task creation payload.
type TaskInput struct {
	Title                string
	Description          string
	AssigneeID           string
	Priority             domain.TaskPriority
	RequiresVerification *bool
	DueAt                *time.Time
	ShiftID              *string
	Tags                 []string
}

// TaskUpdate carries optional field changes.
type TaskUpdate struct {
	Title                *string
	Description          *string
	AssigneeID           *string
	Priority             *domain.TaskPriority
	RequiresVerification *bool
	DueAt                *time.Time
	ShiftID              *string
	Tags                 []string
}

// TaskListFilters describes task listing filters.
type TaskListFilters struct {
	AssigneeID *string
	Statuses   []domain.TaskStatus
	Priorities []domain.TaskPriority
	DueFrom    *time.Time
	DueTo      *time.Time
	Search     *string
	Page
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		history:    deps.HistoryRepo,
		staff:      deps.StaffRepo,
		shifts:     deps.ShiftRepo,
		dispatcher: deps.Dispatcher,
		tx:         txOrDirect(deps.Transactor),
		now:        clockOrDefault(deps.Clock),
	}
}

// CreateTask assigns a new task to an active staff member.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.StaffMember, input TaskInput) (*domain.Task, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	title, err := requireText("title", input.Title, maxTitleLength)
	if err != nil {
		return nil, err
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	if err := s.ensureAssignee(ctx, input.AssigneeID); err != nil {
		return nil, err
	}
	if err := s.ensureShift(ctx, input.ShiftID, input.AssigneeID); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:                title,
		Description:          strings.TrimSpace(input.Description),
		AssigneeID:           input.AssigneeID,
		CreatedBy:            actor.ID,
		Priority:             priority,
		Status:               domain.TaskStatusPending,
		RequiresVerification: true,
		DueAt:                input.DueAt,
		ShiftID:              input.ShiftID,
		Tags:                 cleanTags(input.Tags),
	}
	if input.RequiresVerification != nil {
		task.RequiresVerification = *input.RequiresVerification
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.record(ctx, task.ID, actor.ID, "", task.Status, "created"); err != nil {
		return nil, err
	}
	s.publishAssigned(ctx, task, actor.ID)
	return task, nil
}

// UpdateTask edits a non-terminal task. Reassignment notifies the new assignee.
func (s *TaskService) UpdateTask(ctx context.Context, actor *domain.StaffMember, id string, input TaskUpdate) (*domain.Task, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status.Terminal() {
		return nil, apperrors.NewConflict("task is closed", map[string]any{"status": task.Status})
	}

	if input.Title != nil {
		if task.Title, err = requireText("title", *input.Title, maxTitleLength); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		task.Priority = *input.Priority
	}
	if input.RequiresVerification != nil {
		task.RequiresVerification = *input.RequiresVerification
	}
	if input.DueAt != nil {
		task.DueAt = input.DueAt
	}
	if input.Tags != nil {
		task.Tags = cleanTags(input.Tags)
	}
	reassigned := false
	if input.AssigneeID != nil && *input.AssigneeID != task.AssigneeID {
		if task.Status == domain.TaskStatusSubmitted {
			return nil, apperrors.NewConflict("task is awaiting verification review", nil)
		}
		if err := s.ensureAssignee(ctx, *input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = *input.AssigneeID
		reassigned = true
	}
	if input.ShiftID != nil {
		if *input.ShiftID == "" {
			task.ShiftID = nil
		} else {
			task.ShiftID = input.ShiftID
		}
	}
	if err := s.ensureShift(ctx, task.ShiftID, task.AssigneeID); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.NotFoundOr(err, "task", map[string]any{"id": id})
	}
	if reassigned {
		s.publishAssigned(ctx, task, actor.ID)
	}
	return task, nil
}

// ChangeStatus applies a manual status change. Employees may only start or
// complete their own unverified tasks; SUBMITTED and OVERDUE are never set by hand.
func (s *TaskService) ChangeStatus(ctx context.Context, actor *domain.StaffMember, id string, next domain.TaskStatus, note string) (*domain.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, task.AssigneeID) {
		return nil, apperrors.NewForbidden("task is assigned to someone else")
	}
	if !actor.Role.Supervises() && next != domain.TaskStatusInProgress && next != domain.TaskStatusCompleted {
		return nil, apperrors.NewForbidden("employees may only start or complete tasks")
	}
	switch {
	case next == domain.TaskStatusSubmitted:
		return nil, apperrors.NewValidationError("submit tasks through verification", nil)
	case next == domain.TaskStatusOverdue:
		return nil, apperrors.NewValidationError("overdue status is set automatically", nil)
	case task.Status == domain.TaskStatusSubmitted:
		return nil, apperrors.NewConflict("task is awaiting verification review", nil)
	}
	if err := s.transition(ctx, task, next, actor.ID, strings.TrimSpace(note)); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task and its history.
func (s *TaskService) DeleteTask(ctx context.Context, actor *domain.StaffMember, id string) error {
	if err := requireSupervisor(actor); err != nil {
		return err
	}
	return apperrors.NotFoundOr(s.tasks.Delete(ctx, id), "task", map[string]any{"id": id})
}

// GetTask fetches a task visible to actor.
func (s *TaskService) GetTask(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, task.AssigneeID) {
		return nil, apperrors.NewForbidden("task is assigned to someone else")
	}
	return task, nil
}

// ListTasks returns tasks; employees only ever see their own.
func (s *TaskService) ListTasks(ctx context.Context, actor *domain.StaffMember, filters TaskListFilters) ([]domain.Task, int, error) {
	if err := requireActor(actor); err != nil {
		return nil, 0, err
	}
	repoFilter := repository.TaskFilter{
		AssigneeID: filters.AssigneeID,
		Statuses:   filters.Statuses,
		Priorities: filters.Priorities,
		DueFrom:    filters.DueFrom,
		DueTo:      filters.DueTo,
		Search:     filters.Search,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}
	if !actor.Role.Supervises() {
		repoFilter.AssigneeID = &actor.ID
	}
	items, err := s.tasks.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.tasks.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// History returns the status audit trail of a task.
func (s *TaskService) History(ctx context.Context, actor *domain.StaffMember, id string) ([]domain.TaskHistory, error) {
	if _, err := s.GetTask(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTask(ctx, id)
	return entries, apperrors.MapError(err)
}

// MarkOverdue flags open tasks whose due date has passed.
func (s *TaskService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.tasks.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	marked := 0
	for i := range candidates {
		task := &candidates[i]
		if !task.IsOverdueAt(now) {
			continue
		}
		if err := s.transition(ctx, task, domain.TaskStatusOverdue, "", "due date passed"); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// transition moves task to next, recording history atomically and publishing the change.
// An empty actorID marks a system change.
func (s *TaskService) transition(ctx context.Context, task *domain.Task, next domain.TaskStatus, actorID, note string) error {
	var changed events.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.applyTransition(ctx, task, next, actorID, note)
		return err
	})
	if err != nil {
		return err
	}
	publish(ctx, s.dispatcher, changed)
	return nil
}

// applyTransition writes the new status and its history entry. Callers run it
// inside a transaction and publish the returned event after commit.
func (s *TaskService) applyTransition(ctx context.Context, task *domain.Task, next domain.TaskStatus, actorID, note string) (events.Event, error) {
	if !task.CanTransition(next) {
		return events.Event{}, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": task.Status,
			"to":   next,
		})
	}
	prev, prevCompleted := task.Status, task.CompletedAt
	task.Status = next
	if next == domain.TaskStatusCompleted {
		now := s.now()
		task.CompletedAt = &now
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		task.Status, task.CompletedAt = prev, prevCompleted
		return events.Event{}, apperrors.NotFoundOr(err, "task", map[string]any{"id": task.ID})
	}
	if err := s.record(ctx, task.ID, actorID, prev, next, note); err != nil {
		task.Status, task.CompletedAt = prev, prevCompleted
		return events.Event{}, err
	}
	return events.Event{
		Type:      events.EventTaskStatusChanged,
		SubjectID: task.ID,
		ActorID:   actorID,
		Payload: events.TaskStatusChangedPayload{
			Title:      task.Title,
			AssigneeID: task.AssigneeID,
			CreatedBy:  task.CreatedBy,
			OldStatus:  prev,
			NewStatus:  next,
			Note:       note,
		},
	}, nil
}

func (s *TaskService) load(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "task", map[string]any{"id": id})
	}
	return task, nil
}

func (s *TaskService) record(ctx context.Context, taskID, actorID string, from, to domain.TaskStatus, note string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TaskHistory{
		TaskID:     taskID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
	}
	if actorID != "" {
		entry.ChangedBy = strPtr(actorID)
	}
	return apperrors.MapError(s.history.Create(ctx, entry))
}

func (s *TaskService) publishAssigned(ctx context.Context, task *domain.Task, actorID string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventTaskAssigned,
		SubjectID: task.ID,
		ActorID:   actorID,
		Payload: events.TaskAssignedPayload{
			Title:      task.Title,
			AssigneeID: task.AssigneeID,
			Priority:   task.Priority,
			DueAt:      task.DueAt,
		},
	})
}

func (s *TaskService) ensureAssignee(ctx context.Context, staffID string) error {
	if strings.TrimSpace(staffID) == "" {
		return apperrors.NewValidationError("assignee_id is required", map[string]any{"field": "assignee_id"})
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("assignee does not exist", map[string]any{"assignee_id": staffID})
		}
		return apperrors.MapError(err)
	}
	if !staff.Active {
		return apperrors.NewValidationError("assignee is inactive", map[string]any{"assignee_id": staffID})
	}
	return nil
}

func (s *TaskService) ensureShift(ctx context.Context, shiftID *string, assigneeID string) error {
	if shiftID == nil || s.shifts == nil {
		return nil
	}
	shift, err := s.shifts.GetByID(ctx, *shiftID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("shift does not exist", map[string]any{"shift_id": *shiftID})
		}
		return apperrors.MapError(err)
	}
	if shift.StaffID != assigneeID {
		return apperrors.NewValidationError("shift belongs to another staff member", map[string]any{"shift_id": *shiftID})
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
