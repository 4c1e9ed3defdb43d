package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// TaskHistoryRepository stores audit entries.
type TaskHistoryRepository interface {
	Create(ctx context.Context, history *domain.TaskHistory) error
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistory, error)
}

type taskHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTaskHistoryRepository builds repository.
func NewTaskHistoryRepository(pool *pgxpool.Pool) TaskHistoryRepository {
	return &taskHistoryRepository{pool: pool}
}

func (r *taskHistoryRepository) Create(ctx context.Context, history *domain.TaskHistory) error {
	const query = `
        INSERT INTO task_history (task_id, changed_by, from_status, to_status, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		history.TaskID,
		history.ChangedBy,
		history.FromStatus,
		history.ToStatus,
		history.Note,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *taskHistoryRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistory, error) {
	const query = `
        SELECT id, task_id, changed_by, from_status, to_status, note, created_at
        FROM task_history WHERE task_id=$1 ORDER BY created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TaskHistory, error) {
		var history domain.TaskHistory
		err := row.Scan(
			&history.ID,
			&history.TaskID,
			&history.ChangedBy,
			&history.FromStatus,
			&history.ToStatus,
			&history.Note,
			&history.CreatedAt,
		)
		return history, err
	})
}
