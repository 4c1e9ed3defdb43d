package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const maxEvidenceURLs = 20

// VerificationService handles completion submissions and their review.
type VerificationService struct {
	verifications repository.VerificationRepository
	tasks         *TaskService
	dispatcher    events.Dispatcher
	tx            repository.Transactor
	now           func() time.Time
}

// VerificationDependencies bundles verification collaborators.
type VerificationDependencies struct {
	VerificationRepo repository.VerificationRepository
	Tasks            *TaskService
	Dispatcher       events.Dispatcher
	Transactor       repository.Transactor
	Clock            func() time.Time
}

// SubmissionInput is an assignee's completion claim.
type SubmissionInput struct {
	TaskID       string
	Notes        string
	EvidenceURLs []string
}

// ReviewInput carries a reviewer's decision details.
type ReviewInput struct {
	QualityRating *int
	Comment       string
}

// VerificationListFilters narrows verification listings.
type VerificationListFilters struct {
	TaskID *string
	Status *domain.VerificationStatus
	Page
}

// NewVerificationService constructs the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	return &VerificationService{
		verifications: deps.VerificationRepo,
		tasks:         deps.Tasks,
		dispatcher:    deps.Dispatcher,
		tx:            txOrDirect(deps.Transactor),
		now:           clockOrDefault(deps.Clock),
	}
}

// Submit records a completion claim and moves the task to SUBMITTED.
func (s *VerificationService) Submit(ctx context.Context, actor *domain.StaffMember, input SubmissionInput) (*domain.Verification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	task, err := s.tasks.load(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != actor.ID {
		return nil, apperrors.NewForbidden("only the assignee can submit a task for verification")
	}
	if !task.RequiresVerification {
		return nil, apperrors.NewValidationError("task does not require verification", map[string]any{"task_id": task.ID})
	}
	if task.Status != domain.TaskStatusInProgress && task.Status != domain.TaskStatusOverdue {
		return nil, apperrors.NewConflict("task must be in progress or overdue to submit", map[string]any{"status": task.Status})
	}
	evidence, err := cleanEvidence(input.EvidenceURLs)
	if err != nil {
		return nil, err
	}
	pending, err := s.verifications.HasPending(ctx, task.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewConflict("task already has a pending verification", map[string]any{"task_id": task.ID})
	}

	v := &domain.Verification{
		TaskID:       task.ID,
		SubmittedBy:  actor.ID,
		Notes:        strings.TrimSpace(input.Notes),
		EvidenceURLs: evidence,
		Status:       domain.VerificationPending,
		SubmittedAt:  s.now(),
	}
	// The claim and the task move to SUBMITTED land together or not at all.
	var changed events.Event
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.verifications.Create(ctx, v); err != nil {
			return apperrors.MapError(err)
		}
		var err error
		changed, err = s.tasks.applyTransition(ctx, task, domain.TaskStatusSubmitted, actor.ID, "submitted for verification")
		return err
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, changed)
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventVerificationSubmitted,
		SubjectID: v.ID,
		ActorID:   actor.ID,
		Payload:   s.payload(task, v),
	})
	return v, nil
}

// Approve accepts a submission and completes its task.
func (s *VerificationService) Approve(ctx context.Context, actor *domain.StaffMember, id string, input ReviewInput) (*domain.Verification, error) {
	if input.QualityRating == nil {
		return nil, apperrors.NewValidationError("quality_rating is required", nil)
	}
	return s.review(ctx, actor, id, domain.VerificationApproved, input)
}

// Reject sends a submission back to the assignee.
func (s *VerificationService) Reject(ctx context.Context, actor *domain.StaffMember, id string, input ReviewInput) (*domain.Verification, error) {
	if strings.TrimSpace(input.Comment) == "" {
		return nil, apperrors.NewValidationError("comment is required when rejecting", nil)
	}
	return s.review(ctx, actor, id, domain.VerificationRejected, input)
}

// Get returns a verification visible to actor.
func (s *VerificationService) Get(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Verification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	v, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "verification", map[string]any{"id": id})
	}
	if !canSee(actor, v.SubmittedBy) {
		return nil, apperrors.NewForbidden("verification belongs to someone else")
	}
	return v, nil
}

// List returns verifications; employees only see their own submissions.
func (s *VerificationService) List(ctx context.Context, actor *domain.StaffMember, filters VerificationListFilters) ([]domain.Verification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *filters.Status})
	}
	filter := repository.VerificationFilter{
		TaskID: filters.TaskID,
		Status: filters.Status,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	if !actor.Role.Supervises() {
		filter.SubmittedBy = &actor.ID
	}
	items, err := s.verifications.List(ctx, filter)
	return items, apperrors.MapError(err)
}

func (s *VerificationService) review(ctx context.Context, actor *domain.StaffMember, id string, decision domain.VerificationStatus, input ReviewInput) (*domain.Verification, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	if r := input.QualityRating; r != nil && (*r < 1 || *r > 5) {
		return nil, apperrors.NewValidationError("quality_rating must be between 1 and 5", map[string]any{"quality_rating": *r})
	}
	v, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "verification", map[string]any{"id": id})
	}
	if v.SubmittedBy == actor.ID {
		return nil, apperrors.NewForbidden("cannot review your own submission")
	}
	if v.Status != domain.VerificationPending {
		return nil, apperrors.NewConflict("verification already reviewed", map[string]any{"status": v.Status})
	}
	task, err := s.tasks.load(ctx, v.TaskID)
	if err != nil {
		return nil, err
	}

	next := domain.TaskStatusCompleted
	if decision == domain.VerificationRejected {
		next = domain.TaskStatusInProgress
	}
	comment := strings.TrimSpace(input.Comment)
	now := s.now()
	reviewed := *v
	reviewed.Status = decision
	reviewed.ReviewerID = &actor.ID
	reviewed.ReviewComment = comment
	reviewed.QualityRating = input.QualityRating
	reviewed.ReviewedAt = &now

	var changed events.Event
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if changed, err = s.tasks.applyTransition(ctx, task, next, actor.ID, comment); err != nil {
			return err
		}
		if err := s.verifications.Update(ctx, &reviewed); err != nil {
			return apperrors.NotFoundOr(err, "verification", map[string]any{"id": id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	v = &reviewed
	publish(ctx, s.dispatcher, changed)
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventVerificationReviewed,
		SubjectID: v.ID,
		ActorID:   actor.ID,
		Payload:   s.payload(task, v),
	})
	return v, nil
}

func (s *VerificationService) payload(task *domain.Task, v *domain.Verification) events.VerificationPayload {
	return events.VerificationPayload{
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		TaskCreatedBy: task.CreatedBy,
		SubmittedBy:   v.SubmittedBy,
		Status:        v.Status,
		Comment:       v.ReviewComment,
	}
}

func cleanEvidence(raw []string) ([]string, error) {
	if len(raw) > maxEvidenceURLs {
		return nil, apperrors.NewValidationError("too many evidence urls", map[string]any{"max": maxEvidenceURLs})
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperrors.NewValidationError("evidence urls must be absolute http(s) urls", map[string]any{"url": r})
		}
		out = append(out, r)
	}
	return out, nil
}
