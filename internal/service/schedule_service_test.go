package service

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

func TestCreateShiftValidation(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(2 * time.Hour)

	first, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(8 * time.Hour), ShiftType: domain.ShiftTypeMorning})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusScheduled, first.Status)

	tests := []struct {
		name   string
		input  ShiftInput
		status int
	}{
		{"end before start", ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(-time.Hour)}, http.StatusBadRequest},
		{"too long", ShiftInput{StaffID: emp.ID, StartAt: start.Add(24 * time.Hour), EndAt: start.Add(41 * time.Hour)}, http.StatusBadRequest},
		{"bad type", ShiftInput{StaffID: emp.ID, StartAt: start.Add(24 * time.Hour), EndAt: start.Add(25 * time.Hour), ShiftType: "BRUNCH"}, http.StatusBadRequest},
		{"unknown staff", ShiftInput{StaffID: "ghost", StartAt: start.Add(24 * time.Hour), EndAt: start.Add(25 * time.Hour)}, http.StatusBadRequest},
		{"overlap", ShiftInput{StaffID: emp.ID, StartAt: start.Add(7 * time.Hour), EndAt: start.Add(9 * time.Hour)}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.schedule.CreateShift(env.ctx, mgr, tt.input)
			assertStatus(t, err, tt.status)
		})
	}

	_, err = env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start.Add(7 * time.Hour), EndAt: start.Add(9 * time.Hour)})
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, first.ID, de.Details["conflicting_shift_id"])

	back, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start.Add(8 * time.Hour), EndAt: start.Add(10 * time.Hour)})
	require.NoError(t, err, "back-to-back shifts are allowed")
	assert.Equal(t, domain.ShiftTypeCustom, back.ShiftType)
}

func TestCancelledShiftFreesSlot(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(2 * time.Hour)

	shift, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour)})
	require.NoError(t, err)
	_, err = env.schedule.CancelShift(env.ctx, mgr, shift.ID)
	require.NoError(t, err)
	_, err = env.schedule.CancelShift(env.ctx, mgr, shift.ID)
	assertStatus(t, err, http.StatusConflict)

	_, err = env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventShiftScheduled, events.EventShiftCancelled, events.EventShiftScheduled}, env.dispatcher.types())
	assert.Len(t, env.alertsFor(emp.ID), 3)
}

func TestUpdateShiftExcludesItself(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(2 * time.Hour)

	shift, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour)})
	require.NoError(t, err)

	newEnd := start.Add(6 * time.Hour)
	updated, err := env.schedule.UpdateShift(env.ctx, mgr, shift.ID, ShiftUpdate{EndAt: &newEnd, Location: ptr("Dock")})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndAt)
	assert.Equal(t, "Dock", updated.Location)
}

func TestListShiftsDefaultsToCurrentWeek(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	other := env.addStaff(t, "other", domain.StaffRoleEmployee)

	monday := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	for _, s := range []struct {
		staff string
		start time.Time
	}{
		{emp.ID, monday},
		{other.ID, monday.AddDate(0, 0, 2)},
		{emp.ID, monday.AddDate(0, 0, 7)},
		{emp.ID, monday.AddDate(0, 0, -1)},
	} {
		_, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: s.staff, StartAt: s.start, EndAt: s.start.Add(8 * time.Hour)})
		require.NoError(t, err)
	}

	all, err := env.schedule.ListShifts(env.ctx, mgr, ShiftListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.schedule.ListShifts(env.ctx, emp, ShiftListFilters{StaffID: &other.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, emp.ID, mine[0].StaffID)

	from := monday.AddDate(0, 0, 7)
	next, err := env.schedule.ListShifts(env.ctx, mgr, ShiftListFilters{From: &from})
	require.NoError(t, err)
	assert.Len(t, next, 1)

	to := from.Add(-time.Hour)
	_, err = env.schedule.ListShifts(env.ctx, mgr, ShiftListFilters{From: &from, To: &to})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCheckInAndOut(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(time.Hour)

	shift, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour)})
	require.NoError(t, err)

	_, err = env.schedule.CheckIn(env.ctx, emp, shift.ID)
	assertStatus(t, err, http.StatusBadRequest)
	_, err = env.schedule.CheckIn(env.ctx, mgr, shift.ID)
	assertStatus(t, err, http.StatusForbidden)
	_, err = env.schedule.CheckOut(env.ctx, emp, shift.ID)
	assertStatus(t, err, http.StatusConflict)

	env.now = start.Add(11 * time.Minute)
	in, err := env.schedule.CheckIn(env.ctx, emp, shift.ID)
	require.NoError(t, err)
	assert.True(t, in.Late)
	assert.Equal(t, domain.ShiftStatusCheckedIn, in.Status)

	env.now = start.Add(4 * time.Hour)
	out, err := env.schedule.CheckOut(env.ctx, emp, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusCompleted, out.Status)
	require.NotNil(t, out.CheckedOutAt)
}

func TestCheckInWithinGraceIsOnTime(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(20 * time.Minute)

	shift, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour)})
	require.NoError(t, err)
	in, err := env.schedule.CheckIn(env.ctx, emp, shift.ID)
	require.NoError(t, err)
	assert.False(t, in.Late)
}

func TestMarkMissed(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(-6 * time.Hour)

	shift, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour)})
	require.NoError(t, err)

	n, err := env.schedule.MarkMissed(env.ctx, env.now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.schedule.GetShift(env.ctx, emp, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusMissed, got.Status)
}

func TestExportSchedule(t *testing.T) {
	env := newTestEnv(t)
	mgr := env.addStaff(t, "mgr", domain.StaffRoleManager)
	emp := env.addStaff(t, "emp", domain.StaffRoleEmployee)
	start := env.now.Add(time.Hour)
	_, err := env.schedule.CreateShift(env.ctx, mgr, ShiftInput{StaffID: emp.ID, StartAt: start, EndAt: start.Add(4 * time.Hour), Location: "Dock"})
	require.NoError(t, err)

	var buf bytes.Buffer
	assertStatus(t, env.schedule.Export(env.ctx, emp, &buf, ShiftListFilters{}), http.StatusForbidden)
	require.NoError(t, env.schedule.Export(env.ctx, mgr, &buf, ShiftListFilters{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "emp")
	assert.Contains(t, rows[1], "Dock")
}
