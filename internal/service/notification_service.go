package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
)

// NotificationService turns domain events into alerts.
type NotificationService struct {
	dispatcher events.Dispatcher
	alerts     *AlertService
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, alerts *AlertService, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		alerts:     alerts,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskAssigned)
	n.dispatcher.Subscribe(events.EventTaskStatusChanged, n.handleTaskStatusChanged)
	n.dispatcher.Subscribe(events.EventShiftScheduled, n.handleShift)
	n.dispatcher.Subscribe(events.EventShiftUpdated, n.handleShift)
	n.dispatcher.Subscribe(events.EventShiftCancelled, n.handleShift)
	n.dispatcher.Subscribe(events.EventShiftMissed, n.handleShift)
	n.dispatcher.Subscribe(events.EventVerificationSubmitted, n.handleVerificationSubmitted)
	n.dispatcher.Subscribe(events.EventVerificationReviewed, n.handleVerificationReviewed)
	n.dispatcher.Subscribe(events.EventWarningIssued, n.handleWarningIssued)
	n.dispatcher.Subscribe(events.EventPerformanceEvaluated, n.handlePerformanceEvaluated)
}

// SendPasswordReset stands in for email delivery of a reset token.
func (n *NotificationService) SendPasswordReset(_ context.Context, email, token string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Info("password reset email",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", email),
		zap.Int("token_length", len(token)))
}

func (n *NotificationService) handleTaskAssigned(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.TaskAssignedPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	if p.AssigneeID == event.ActorID {
		return nil
	}
	msg := fmt.Sprintf("Priority %s.", p.Priority)
	if p.DueAt != nil {
		msg = fmt.Sprintf("Priority %s, due %s.", p.Priority, p.DueAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return n.alert(ctx, event, domain.Alert{
		RecipientID: p.AssigneeID,
		Type:        domain.AlertTypeTask,
		Severity:    domain.SeverityInfo,
		Title:       "New task: " + p.Title,
		Message:     msg,
	})
}

func (n *NotificationService) handleTaskStatusChanged(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.TaskStatusChangedPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	severity := domain.SeverityInfo
	if p.NewStatus == domain.TaskStatusOverdue {
		severity = domain.SeverityWarning
	}
	msg := fmt.Sprintf("Status changed from %s to %s.", p.OldStatus, p.NewStatus)
	if p.Note != "" {
		msg += " " + p.Note
	}
	alert := domain.Alert{
		Type:     domain.AlertTypeTask,
		Severity: severity,
		Title:    "Task updated: " + p.Title,
		Message:  msg,
	}
	if p.AssigneeID != event.ActorID {
		alert.RecipientID = p.AssigneeID
		if err := n.alert(ctx, event, alert); err != nil {
			return err
		}
	}
	// Creators hear about overdue tasks they handed out.
	if p.NewStatus == domain.TaskStatusOverdue && p.CreatedBy != "" && p.CreatedBy != p.AssigneeID {
		alert.RecipientID = p.CreatedBy
		return n.alert(ctx, event, alert)
	}
	return nil
}

func (n *NotificationService) handleShift(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.ShiftPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	var title string
	severity := domain.SeverityInfo
	switch event.Type {
	case events.EventShiftScheduled:
		title = "Shift scheduled"
	case events.EventShiftUpdated:
		title = "Shift changed"
	case events.EventShiftCancelled:
		title = "Shift cancelled"
	case events.EventShiftMissed:
		title = "Shift missed"
		severity = domain.SeverityWarning
	}
	msg := fmt.Sprintf("%s shift %s to %s",
		p.ShiftType, p.StartAt.UTC().Format("2006-01-02 15:04"), p.EndAt.UTC().Format("15:04 MST"))
	if p.Location != "" {
		msg += " at " + p.Location
	}
	return n.alert(ctx, event, domain.Alert{
		RecipientID: p.StaffID,
		Type:        domain.AlertTypeShift,
		Severity:    severity,
		Title:       title,
		Message:     msg + ".",
	})
}

func (n *NotificationService) handleVerificationSubmitted(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.VerificationPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	if p.TaskCreatedBy == "" || p.TaskCreatedBy == p.SubmittedBy {
		return nil
	}
	return n.alert(ctx, event, domain.Alert{
		RecipientID: p.TaskCreatedBy,
		Type:        domain.AlertTypeVerification,
		Severity:    domain.SeverityInfo,
		Title:       "Verification requested: " + p.TaskTitle,
		Message:     "A completed task is waiting for review.",
	})
}

func (n *NotificationService) handleVerificationReviewed(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.VerificationPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	alert := domain.Alert{
		RecipientID: p.SubmittedBy,
		Type:        domain.AlertTypeVerification,
		Severity:    domain.SeverityInfo,
		Title:       "Task approved: " + p.TaskTitle,
		Message:     p.Comment,
	}
	if p.Status == domain.VerificationRejected {
		alert.Severity = domain.SeverityWarning
		alert.Title = "Task returned: " + p.TaskTitle
	}
	return n.alert(ctx, event, alert)
}

func (n *NotificationService) handleWarningIssued(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.WarningIssuedPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	if err := n.alert(ctx, event, domain.Alert{
		RecipientID: p.StaffID,
		Type:        domain.AlertTypeWarning,
		Severity:    domain.SeverityWarning,
		Title:       fmt.Sprintf("Disciplinary warning: %s", p.Level),
		Message:     p.Reason,
	}); err != nil {
		return err
	}
	if p.Level != domain.WarningLevelTerminationReview || n.alerts == nil {
		return nil
	}
	_, err := n.alerts.NotifyRole(ctx, domain.StaffRoleAdmin, domain.Alert{
		Type:        domain.AlertTypeWarning,
		Severity:    domain.SeverityCritical,
		Title:       "Termination review: " + p.StaffName,
		Message:     p.Reason,
		ReferenceID: strPtr(p.StaffID),
	})
	return err
}

func (n *NotificationService) handlePerformanceEvaluated(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.PerformanceEvaluatedPayload)
	if !ok {
		return errUnexpectedPayload(event)
	}
	alert := domain.Alert{
		RecipientID: p.StaffID,
		Type:        domain.AlertTypePerformance,
		Severity:    domain.SeverityInfo,
		Title:       fmt.Sprintf("Performance evaluated: grade %s", p.Grade),
		Message:     fmt.Sprintf("Overall score %.2f.", p.OverallScore),
	}
	if p.Flagged {
			alert.Severity = domain.SeverityWarning
		alert.Title = fmt.Sprintf("Performance below expectations: grade %s", p.Grade)
	}
	return n.alert(ctx, event, alert)
}

func (n *NotificationService) alert(ctx context.Context, event events.Event, alert domain.Alert) error {
	if n.alerts == nil || alert.RecipientID == "" {
		return nil
	}
	if alert.ReferenceID == nil && event.SubjectID != "" {
		alert.ReferenceID = strPtr(event.SubjectID)
	}
	_, err := n.alerts.Notify(ctx, alert)
	return err
}

func errUnexpectedPayload(event events.Event) error {
	return fmt.Errorf("%s: unexpected payload %T", event.Type, event.Payload)
}
