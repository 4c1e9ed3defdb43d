package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/notify"
	"github.com/shiftdesk/staff-scheduler/internal/observability"
	"github.com/shiftdesk/staff-scheduler/internal/persistence"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	"github.com/shiftdesk/staff-scheduler/internal/service"
	"github.com/shiftdesk/staff-scheduler/internal/worker"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "staffctl",
		Short:        "Operator tooling for the staff scheduler",
		SilenceUsage: true,
	}
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(seedAdminCmd())
	cmd.AddCommand(importStaffCmd())
	cmd.AddCommand(sweepCmd())
	return cmd
}

// runtime holds the connections shared by the commands.
type runtime struct {
	cfg    *config.Config
	policy config.Policy
	logger *zap.Logger
	pg     *persistence.Postgres
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &runtime{cfg: cfg, policy: policy, logger: logger, pg: pg}, nil
}

func (r *runtime) Close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func (r *runtime) staffService() *service.StaffService {
	pool := r.pg.PoolHandle()
	return service.NewStaffService(*r.cfg, service.OrgDependencies{
		DepartmentRepo: repository.NewDepartmentRepository(pool),
		StaffRepo:      repository.NewStaffRepository(pool),
		Logger:         r.logger,
	})
}

// sweeper builds the maintenance worker with alert fan-out attached, so a
// manual pass notifies staff the same way the server does.
func (r *runtime) sweeper() *worker.SweepWorker {
	pool := r.pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	dispatcher := events.NewInMemoryDispatcher(r.logger)

	notifiers := []notify.Notifier{notify.NewLogNotifier(r.logger)}
	if url := strings.TrimSpace(r.cfg.Notification.WebhookURL); url != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(url))
	}
	alerts := service.NewAlertService(service.AlertDependencies{
		AlertRepo: repository.NewAlertRepository(pool),
		StaffRepo: staffRepo,
		Notifier:  notify.NewFanout(domain.AlertSeverity(r.cfg.Notification.MinSeverity), notifiers...),
		Logger:    r.logger,
	})
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, alerts, r.logger, r.cfg.Notification), r.logger)

	tasks := service.NewTaskService(service.TaskDependencies{
		TaskRepo:    repository.NewTaskRepository(pool),
		HistoryRepo: repository.NewTaskHistoryRepository(pool),
		StaffRepo:   staffRepo,
		ShiftRepo:   repository.NewShiftRepository(pool),
		Dispatcher:  dispatcher,
		Transactor:  repository.NewTransactor(pool),
	})
	schedule := service.NewScheduleService(service.ScheduleDependencies{
		ShiftRepo:  repository.NewShiftRepository(pool),
		StaffRepo:  staffRepo,
		Dispatcher: dispatcher,
		Policy:     r.policy.Schedule,
	})
	discipline := service.NewDisciplineService(service.DisciplineDependencies{
		WarningRepo: repository.NewWarningRepository(pool),
		StaffRepo:   staffRepo,
		Dispatcher:  dispatcher,
		Policy:      r.policy.Discipline,
	})
	return worker.NewSweepWorker(tasks, schedule, discipline, r.cfg.Worker.SweepInterval(), r.logger)
}
