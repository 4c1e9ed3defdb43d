package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// OverdueMarker flags tasks whose due date has passed.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// MissedMarker flags scheduled shifts that ended without a check-in.
type MissedMarker interface {
	MarkMissed(ctx context.Context, now time.Time) (int, error)
}

// LevelRecomputer refreshes warning levels whose backing warnings lapsed.
type LevelRecomputer interface {
	RecomputeLapsed(ctx context.Context, now time.Time) (int, error)
}

// SweepResult counts what one pass changed.
type SweepResult struct {
	OverdueTasks    int
	MissedShifts    int
	LevelsRefreshed int
}

// SweepWorker runs the periodic maintenance passes.
type SweepWorker struct {
	tasks      OverdueMarker
	shifts     MissedMarker
	discipline LevelRecomputer
	interval   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewSweepWorker builds a worker. A non-positive interval defaults to one minute.
func NewSweepWorker(tasks OverdueMarker, shifts MissedMarker, discipline LevelRecomputer, interval time.Duration, logger *zap.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepWorker{
		tasks:      tasks,
		shifts:     shifts,
		discipline: discipline,
		interval:   interval,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce performs a single pass. Every step runs even when an earlier one fails.
func (w *SweepWorker) RunOnce(ctx context.Context) (SweepResult, error) {
	now := w.now()
	var res SweepResult
	var errs []error
	if w.tasks != nil {
		n, err := w.tasks.MarkOverdue(ctx, now)
		res.OverdueTasks = n
		errs = append(errs, wrapStep("overdue tasks", err))
	}
	if w.shifts != nil {
		n, err := w.shifts.MarkMissed(ctx, now)
		res.MissedShifts = n
		errs = append(errs, wrapStep("missed shifts", err))
	}
	if w.discipline != nil {
		n, err := w.discipline.RecomputeLapsed(ctx, now)
		res.LevelsRefreshed = n
		errs = append(errs, wrapStep("warning levels", err))
	}
	return res, errors.Join(errs...)
}

// Run sweeps on every tick until ctx is cancelled.
func (w *SweepWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.logger.Info("sweep worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweep worker stopped")
			return
		case <-ticker.C:
			res, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.Error("sweep failed", zap.Error(err))
			}
			if res != (SweepResult{}) {
				w.logger.Info("sweep completed",
					zap.Int("overdue_tasks", res.OverdueTasks),
					zap.Int("missed_shifts", res.MissedShifts),
					zap.Int("levels_refreshed", res.LevelsRefreshed))
			}
		}
	}
}

func wrapStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", step, err)
}
