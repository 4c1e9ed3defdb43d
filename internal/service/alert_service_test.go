package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

type failingNotifier struct {
	calls int
}

func (f *failingNotifier) Notify(context.Context, domain.Alert) error {
	f.calls++
	return errors.New("telegram unreachable")
}

func TestCreateAlertTargets(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addStaff(t, "admin", domain.StaffRoleAdmin)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	gone := env.addStaff(t, "gone", domain.StaffRoleEmployee)
	gone.Active = false
	require.NoError(t, fakeStaff{env.db}.Update(env.ctx, gone))

	_, err := env.alerts.Create(env.ctx, emp, AlertInput{Title: "hi"})
	assertStatus(t, err, http.StatusForbidden)
	_, err = env.alerts.Create(env.ctx, mgr, AlertInput{Title: " "})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = env.alerts.Create(env.ctx, mgr, AlertInput{Title: "x", Severity: "LOUD"})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = env.alerts.Create(env.ctx, mgr, AlertInput{Title: "x", RecipientID: ptr("ghost")})
	assertStatus(t, err, http.StatusNotFound)

	one, err := env.alerts.Create(env.ctx, mgr, AlertInput{RecipientID: &emp.ID, Title: "Bring keys", Message: " front desk "})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, emp.ID, one[0].RecipientID)
	assert.Equal(t, domain.AlertTypeInfo, one[0].Type)
	assert.Equal(t, domain.SeverityInfo, one[0].Severity)
	assert.Equal(t, "front desk", one[0].Message)

	employees := domain.StaffRoleEmployee
	byRole, err := env.alerts.Create(env.ctx, admin, AlertInput{Role: &employees, Title: "Fire drill", Severity: domain.SeverityWarning})
	require.NoError(t, err)
	require.Len(t, byRole, 1, "inactive staff are skipped")
	assert.Equal(t, emp.ID, byRole[0].RecipientID)

	everyone, err := env.alerts.Create(env.ctx, admin, AlertInput{Title: "Holiday hours"})
	require.NoError(t, err)
	assert.Len(t, everyone, 3)

	assert.Len(t, env.alertsFor(gone.ID), 0)
}

func TestAlertInbox(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	other := env.addStaff(t, "other", domain.StaffRoleEmployee)

	for _, title := range []string{"first", "second", "third"} {
		_, err := env.alerts.Create(env.ctx, mgr, AlertInput{RecipientID: &emp.ID, Title: title})
		require.NoError(t, err)
	}
	_, err := env.alerts.Notify(env.ctx, domain.Alert{RecipientID: emp.ID, Type: domain.AlertTypeSystem, Title: "system"})
	require.NoError(t, err)
	_, err = env.alerts.Notify(env.ctx, domain.Alert{Title: "nobody"})
	assertStatus(t, err, http.StatusBadRequest)

	inbox, err := env.alerts.List(env.ctx, emp, AlertListFilters{})
	require.NoError(t, err)
	require.Len(t, inbox, 4)
	assert.Equal(t, "system", inbox[0].Title, "newest first")

	system := domain.AlertTypeSystem
	filtered, err := env.alerts.List(env.ctx, emp, AlertListFilters{Type: &system})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	n, err := env.alerts.UnreadCount(env.ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assertStatus(t, env.alerts.MarkRead(env.ctx, other, inbox[0].ID), http.StatusNotFound)
	require.NoError(t, env.alerts.MarkRead(env.ctx, emp, inbox[0].ID))
	require.NoError(t, env.alerts.MarkRead(env.ctx, emp, inbox[0].ID))

	unread, err := env.alerts.List(env.ctx, emp, AlertListFilters{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 3)

	changed, err := env.alerts.MarkAllRead(env.ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)
	n, err = env.alerts.UnreadCount(env.ctx, emp)
	require.NoError(t, err)
	assert.Zero(t, n)

	assertStatus(t, env.alerts.Delete(env.ctx, other, inbox[1].ID), http.StatusNotFound)
	require.NoError(t, env.alerts.Delete(env.ctx, emp, inbox[1].ID))
	assert.Len(t, env.alertsFor(emp.ID), 3)
}

func TestAlertForwardingFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)

	core, logs := observer.New(zapcore.WarnLevel)
	notifier := &failingNotifier{}
	svc := NewAlertService(AlertDependencies{
		AlertRepo: fakeAlerts{env.db},
		StaffRepo: fakeStaff{env.db},
		Notifier:  notifier,
		Logger:    zap.New(core),
		Clock:     func() time.Time { return env.now },
	})

	created, err := svc.Notify(env.ctx, domain.Alert{RecipientID: emp.ID, Title: "Shift moved"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, notifier.calls)
	assert.Len(t, env.alertsFor(emp.ID), 1, "alert is stored even when forwarding fails")

	entries := logs.FilterMessage("alert forwarding failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, emp.ID, entries[0].ContextMap()["recipient_id"])
}
