package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

func TestIssueWarningEscalates(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)

	_, err := env.discipline.IssueWarning(env.ctx, emp, WarningInput{StaffID: mgr.ID, Reason: "x"})
	assertStatus(t, err, http.StatusForbidden)
	_, err = env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: mgr.ID, Reason: "x"})
	assertStatus(t, err, http.StatusForbidden)
	_, err = env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: " "})
	assertStatus(t, err, http.StatusBadRequest)

	first, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "late"})
	require.NoError(t, err)
	assert.Equal(t, domain.WarningLevelVerbal, first.Level)
	assert.False(t, first.Automatic)
	require.NotNil(t, first.ExpiresAt)
	assert.Equal(t, env.now.AddDate(0, 0, 180), *first.ExpiresAt)
	assert.Equal(t, domain.WarningLevelVerbal, env.reload(t, emp.ID).WarningLevel)

	_, err = env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "again", Level: ptr(domain.WarningLevelVerbal)})
	assertStatus(t, err, http.StatusBadRequest)

	final, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "again", Level: ptr(domain.WarningLevelFinal)})
	require.NoError(t, err)
	assert.Equal(t, domain.WarningLevelFinal, final.Level)

	top, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "last"})
	require.NoError(t, err)
	assert.Equal(t, domain.WarningLevelTerminationReview, top.Level)
	assert.Nil(t, top.ExpiresAt)

	_, err = env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "more"})
	assertStatus(t, err, http.StatusConflict)
}

func TestTerminationReviewAlertsAdmins(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addStaff(t, "admin", domain.StaffRoleAdmin)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)

	_, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "gross misconduct", Level: ptr(domain.WarningLevelTerminationReview)})
	require.NoError(t, err)

	adminAlerts := env.alertsFor(admin.ID)
	require.Len(t, adminAlerts, 1)
	assert.Equal(t, domain.SeverityCritical, adminAlerts[0].Severity)
	assert.Equal(t, "Termination review: emp", adminAlerts[0].Title)
	assert.Empty(t, env.alertsFor(mgr.ID))
	assert.Len(t, env.alertsFor(emp.ID), 1)
}

func TestAcknowledgeAndRevoke(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addStaff(t, "admin", domain.StaffRoleAdmin)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)

	verbal, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "one"})
	require.NoError(t, err)
	written, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "two"})
	require.NoError(t, err)

	_, err = env.discipline.Acknowledge(env.ctx, mgr, verbal.ID)
	assertStatus(t, err, http.StatusForbidden)
	acked, err := env.discipline.Acknowledge(env.ctx, emp, verbal.ID)
	require.NoError(t, err)
	require.NotNil(t, acked.AcknowledgedAt)
	again, err := env.discipline.Acknowledge(env.ctx, emp, verbal.ID)
	require.NoError(t, err)
	assert.Equal(t, acked.AcknowledgedAt, again.AcknowledgedAt)

	_, err = env.discipline.Revoke(env.ctx, mgr, written.ID)
	assertStatus(t, err, http.StatusForbidden)
	revoked, err := env.discipline.Revoke(env.ctx, admin, written.ID)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedBy)
	assert.Equal(t, admin.ID, *revoked.RevokedBy)
	assert.Equal(t, domain.WarningLevelVerbal, env.reload(t, emp.ID).WarningLevel)

	_, err = env.discipline.Revoke(env.ctx, admin, written.ID)
	assertStatus(t, err, http.StatusConflict)
	_, err = env.discipline.Acknowledge(env.ctx, emp, written.ID)
	assertStatus(t, err, http.StatusConflict)

	mine, err := env.discipline.ListWarnings(env.ctx, emp, WarningListFilters{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, verbal.ID, mine[0].ID)
}

func TestRecomputeLapsed(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)

	_, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "one"})
	require.NoError(t, err)

	env.now = env.now.AddDate(0, 0, 181)
	n, err := env.discipline.RecomputeLapsed(env.ctx, env.now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.WarningLevelNone, env.reload(t, emp.ID).WarningLevel)

	next, err := env.discipline.IssueWarning(env.ctx, mgr, WarningInput{StaffID: emp.ID, Reason: "fresh start"})
	require.NoError(t, err)
	assert.Equal(t, domain.WarningLevelVerbal, next.Level, "expired warnings do not count toward escalation")
	assert.WithinDuration(t, env.now.Add(180*24*time.Hour), *next.ExpiresAt, time.Second)
}
