package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

type memRevocations struct {
	revoked map[string]time.Time
}

func (m *memRevocations) Revoke(_ context.Context, id string, exp time.Time) error {
	m.revoked[id] = exp
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}

type capturedMail struct {
	email, token string
}

type memMailer struct {
	sent []capturedMail
}

func (m *memMailer) SendPasswordReset(_ context.Context, email, token string) {
	m.sent = append(m.sent, capturedMail{email: email, token: token})
}

// testEnv wires every service against one in-memory store and a settable clock.
type testEnv struct {
	ctx         context.Context
	db          *memDB
	now         time.Time
	cfg         config.Config
	policy      config.Policy
	dispatcher  *recordingDispatcher
	revocations *memRevocations
	mailer      *memMailer

	auth         *AuthService
	staff        *StaffService
	tasks        *TaskService
	schedule     *ScheduleService
	discipline   *DisciplineService
	performance  *PerformanceService
	alerts       *AlertService
	verification *VerificationService
	dashboard    *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:         context.Background(),
		db:          newMemDB(),
		now:         time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		policy:      config.DefaultPolicy(),
		dispatcher:  newRecordingDispatcher(),
		revocations: &memRevocations{revoked: map[string]time.Time{}},
		mailer:      &memMailer{},
	}
	env.cfg = config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
			AllowSelfRegister:       true,
		},
	}
	clock := func() time.Time { return env.now }

	staffRepo := fakeStaff{env.db}
	taskRepo := fakeTasks{env.db}
	shiftRepo := fakeShifts{env.db}
	alertRepo := fakeAlerts{env.db}
	perfRepo := fakePerformance{env.db}
	verRepo := fakeVerifications{env.db}

	env.auth = NewAuthService(env.cfg, AuthDependencies{
		StaffRepo:         staffRepo,
		PasswordResetRepo: fakeResets{env.db},
		Revocations:       env.revocations,
		Mailer:            env.mailer,
		Clock:             clock,
	})
	env.staff = NewStaffService(env.cfg, OrgDependencies{DepartmentRepo: fakeDepartments{env.db}, StaffRepo: staffRepo})
	env.tasks = NewTaskService(TaskDependencies{
		TaskRepo:    taskRepo,
		HistoryRepo: fakeHistory{env.db},
		StaffRepo:   staffRepo,
		ShiftRepo:   shiftRepo,
		Dispatcher:  env.dispatcher,
		Transactor:  memTx{env.db},
		Clock:       clock,
	})
	env.schedule = NewScheduleService(ScheduleDependencies{
		ShiftRepo:  shiftRepo,
		StaffRepo:  staffRepo,
		Dispatcher: env.dispatcher,
		Policy:     env.policy.Schedule,
		Clock:      clock,
	})
	env.discipline = NewDisciplineService(DisciplineDependencies{
		WarningRepo: fakeWarnings{env.db},
		StaffRepo:   staffRepo,
		Dispatcher:  env.dispatcher,
		Policy:      env.policy.Discipline,
		Clock:       clock,
	})
	env.performance = NewPerformanceService(PerformanceDependencies{
		PerformanceRepo:  perfRepo,
		TaskRepo:         taskRepo,
		ShiftRepo:        shiftRepo,
		VerificationRepo: verRepo,
		StaffRepo:        staffRepo,
		Discipline:       env.discipline,
		Dispatcher:       env.dispatcher,
		Policy:           env.policy.Scoring,
		Clock:            clock,
	})
	env.alerts = NewAlertService(AlertDependencies{AlertRepo: alertRepo, StaffRepo: staffRepo, Clock: clock})
	env.verification = NewVerificationService(VerificationDependencies{
		VerificationRepo: verRepo,
		Tasks:            env.tasks,
		Dispatcher:       env.dispatcher,
		Transactor:       memTx{env.db},
		Clock:            clock,
	})
	env.dashboard = NewDashboardService(DashboardDependencies{
		StaffRepo:        staffRepo,
		TaskRepo:         taskRepo,
		ShiftRepo:        shiftRepo,
		VerificationRepo: verRepo,
		AlertRepo:        alertRepo,
		PerformanceRepo:  perfRepo,
		Clock:            clock,
	})
	NewNotificationService(env.dispatcher, env.alerts, nil, config.NotificationConfig{}).RegisterHandlers()
	return env
}

// addStaff inserts an active staff member whose password is "password123".
func (e *testEnv) addStaff(t *testing.T, name string, role domain.StaffRole) *domain.StaffMember {
	t.Helper()
	hash, err := auth.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	member := &domain.StaffMember{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		WarningLevel: domain.WarningLevelNone,
	}
	require.NoError(t, fakeStaff{e.db}.Create(e.ctx, member))
	return member
}

func (e *testEnv) reload(t *testing.T, id string) *domain.StaffMember {
	t.Helper()
	member, err := fakeStaff{e.db}.GetByID(e.ctx, id)
	require.NoError(t, err)
	return member
}

func (e *testEnv) alertsFor(recipientID string) []domain.Alert {
	alerts, _ := fakeAlerts{e.db}.List(e.ctx, repository.AlertFilter{RecipientID: recipientID})
	return alerts
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperrors.ToDomainError(err).HTTPStatus, err.Error())
}

func ptr[T any](v T) *T { return &v }
