package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// Page carries pagination for list operations.
type Page struct {
	Limit  int
	Offset int
}

func clockOrDefault(clock func() time.Time) func() time.Time {
	if clock == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return clock
}

type directTx struct{}

func (directTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func txOrDirect(tx repository.Transactor) repository.Transactor {
	if tx == nil {
		return directTx{}
	}
	return tx
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError("invalid email address", map[string]any{"email": email})
	}
	return email, nil
}

func requireText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	if max > 0 && len([]rune(value)) > max {
		return "", apperrors.NewValidationError(field+" is too long", map[string]any{"field": field, "max": max})
	}
	return value, nil
}

func requireActor(actor *domain.StaffMember) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

func requireSupervisor(actor *domain.StaffMember) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Role.Supervises() {
		return apperrors.NewForbidden("manager or admin role required")
	}
	return nil
}

func requireAdmin(actor *domain.StaffMember) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// canSee reports whether actor may read a resource owned by ownerID.
func canSee(actor *domain.StaffMember, ownerID string) bool {
	return actor != nil && (actor.Role.Supervises() || actor.ID == ownerID)
}

func strPtr(s string) *string {
	return &s
}

// weekBounds returns Monday 00:00 UTC of t's week and the following Monday.
func weekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 7)
}
