package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/notify"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const broadcastLimit = 500

// AlertService stores alerts and forwards them to out-of-band notifiers.
type AlertService struct {
	alerts   repository.AlertRepository
	staff    repository.StaffRepository
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// AlertDependencies bundles alert collaborators.
type AlertDependencies struct {
	AlertRepo repository.AlertRepository
	StaffRepo repository.StaffRepository
	Notifier  notify.Notifier
	Logger    *zap.Logger
	Clock     func() time.Time
}

// AlertInput is a manually created alert. RecipientID targets one staff member;
// otherwise the alert is broadcast to Role, or to all active staff when Role is nil.
type AlertInput struct {
	RecipientID *string
	Role        *domain.StaffRole
	Type        domain.AlertType
	Severity    domain.AlertSeverity
	Title       string
	Message     string
	ReferenceID *string
}

// AlertListFilters narrows alert listings.
type AlertListFilters struct {
	UnreadOnly bool
	Type       *domain.AlertType
	Page
}

// NewAlertService constructs the service.
func NewAlertService(deps AlertDependencies) *AlertService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		alerts:   deps.AlertRepo,
		staff:    deps.StaffRepo,
		notifier: deps.Notifier,
		logger:   logger,
		now:      clockOrDefault(deps.Clock),
	}
}

// Create lets a supervisor alert one staff member or broadcast.
func (s *AlertService) Create(ctx context.Context, actor *domain.StaffMember, input AlertInput) ([]domain.Alert, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = domain.AlertTypeInfo
	}
	if input.Severity == "" {
		input.Severity = domain.SeverityInfo
	}
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("invalid alert type", map[string]any{"type": input.Type})
	}
	if !input.Severity.Valid() {
		return nil, apperrors.NewValidationError("invalid severity", map[string]any{"severity": input.Severity})
	}
	title, err := requireText("title", input.Title, 200)
	if err != nil {
		return nil, err
	}
	template := domain.Alert{
		Type:        input.Type,
		Severity:    input.Severity,
		Title:       title,
		Message:     strings.TrimSpace(input.Message),
		ReferenceID: input.ReferenceID,
	}

	if input.RecipientID != nil && *input.RecipientID != "" {
		if _, err := s.staff.GetByID(ctx, *input.RecipientID); err != nil {
			return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"id": *input.RecipientID})
		}
		template.RecipientID = *input.RecipientID
		alert, err := s.deliver(ctx, template)
		if err != nil {
			return nil, err
		}
		return []domain.Alert{*alert}, nil
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
	}
	return s.broadcast(ctx, input.Role, template)
}

// Notify creates an alert on behalf of the system.
func (s *AlertService) Notify(ctx context.Context, alert domain.Alert) (*domain.Alert, error) {
	if alert.RecipientID == "" {
		return nil, apperrors.NewValidationError("recipient_id is required", nil)
	}
	return s.deliver(ctx, alert)
}

// NotifyRole creates the alert for every active staff member holding role.
func (s *AlertService) NotifyRole(ctx context.Context, role domain.StaffRole, alert domain.Alert) ([]domain.Alert, error) {
	return s.broadcast(ctx, &role, alert)
}

// List returns the caller's alerts, newest first.
func (s *AlertService) List(ctx context.Context, actor *domain.StaffMember, filters AlertListFilters) ([]domain.Alert, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	alerts, err := s.alerts.List(ctx, repository.AlertFilter{
		RecipientID: actor.ID,
		UnreadOnly:  filters.UnreadOnly,
		Type:        filters.Type,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	})
	return alerts, apperrors.MapError(err)
}

// UnreadCount counts the caller's unread alerts.
func (s *AlertService) UnreadCount(ctx context.Context, actor *domain.StaffMember) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	n, err := s.alerts.CountUnread(ctx, actor.ID)
	return n, apperrors.MapError(err)
}

// MarkRead marks one of the caller's alerts read. Marking twice is a no-op.
func (s *AlertService) MarkRead(ctx context.Context, actor *domain.StaffMember, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.alerts.MarkRead(ctx, id, actor.ID); err != nil {
		return apperrors.NotFoundOr(err, "alert", map[string]any{"id": id})
	}
	return nil
}

// MarkAllRead marks every unread alert of the caller and returns how many changed.
func (s *AlertService) MarkAllRead(ctx context.Context, actor *domain.StaffMember) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	n, err := s.alerts.MarkAllRead(ctx, actor.ID)
	return n, apperrors.MapError(err)
}

// Delete removes one of the caller's alerts.
func (s *AlertService) Delete(ctx context.Context, actor *domain.StaffMember, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.alerts.Delete(ctx, id, actor.ID); err != nil {
		return apperrors.NotFoundOr(err, "alert", map[string]any{"id": id})
	}
	return nil
}

func (s *AlertService) broadcast(ctx context.Context, role *domain.StaffRole, template domain.Alert) ([]domain.Alert, error) {
	active := true
	recipients, err := s.staff.List(ctx, repository.StaffFilter{Role: role, Active: &active, Limit: broadcastLimit})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]domain.Alert, 0, len(recipients))
	for _, member := range recipients {
		alert := template
		alert.RecipientID = member.ID
		created, err := s.deliver(ctx, alert)
		if err != nil {
			return out, err
		}
		out = append(out, *created)
	}
	return out, nil
}

// deliver persists the alert and then forwards it; forwarding failures are only logged.
func (s *AlertService) deliver(ctx context.Context, alert domain.Alert) (*domain.Alert, error) {
	if alert.Type == "" {
		alert.Type = domain.AlertTypeInfo
	}
	if alert.Severity == "" {
		alert.Severity = domain.SeverityInfo
	}
	alert.ID = ""
	alert.ReadAt = nil
	alert.CreatedAt = s.now()
	if err := s.alerts.Create(ctx, &alert); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.Warn("alert forwarding failed",
				zap.String("alert_id", alert.ID),
				zap.String("recipient_id", alert.RecipientID),
				zap.Error(err))
		}
	}
	return &alert, nil
}
