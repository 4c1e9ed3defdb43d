package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// TaskFilter captures task search parameters.
type TaskFilter struct {
	AssigneeID *string
	CreatedBy  *string
	ShiftID    *string
	Statuses   []domain.TaskStatus
	Priorities []domain.TaskPriority
	Search     *string
	DueFrom    *time.Time
	DueTo      *time.Time
	Limit      int
	Offset     int
}

// TaskRepository encapsulates task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
	CountByStatus(ctx context.Context, assigneeID *string) (map[domain.TaskStatus]int, error)
	// ListForPeriod returns tasks of a staff member due inside [from, to). Tasks without
	// a due date never fall in a period.
	ListForPeriod(ctx context.Context, staffID string, from, to time.Time) ([]domain.Task, error)
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, description, assignee_staff_id, COALESCE(created_by::text, ''), priority, status,
               requires_verification, due_at, shift_id, tags, completed_at, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, assignee_staff_id, created_by, priority, status, requires_verification, due_at, shift_id, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return conn(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.AssigneeID,
		nullable(task.CreatedBy),
		task.Priority,
		task.Status,
		task.RequiresVerification,
		task.DueAt,
		task.ShiftID,
		task.Tags,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, description=$2, assignee_staff_id=$3, priority=$4, status=$5,
            requires_verification=$6, due_at=$7, shift_id=$8, tags=$9, completed_at=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return conn(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.AssigneeID,
		task.Priority,
		task.Status,
		task.RequiresVerification,
		task.DueAt,
		task.ShiftID,
		task.Tags,
		task.CompletedAt,
		task.ID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	task, err := pgx.CollectOneRow(rows, scanTask)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	b := taskClauses(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + b.where() +
		` ORDER BY due_at ASC NULLS LAST, created_at DESC` + pageClause(filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTask)
}

func (r *taskRepository) Count(ctx context.Context, filter TaskFilter) (int, error) {
	b := taskClauses(filter)
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+b.where(), b.args...).Scan(&n)
	return n, err
}

func (r *taskRepository) CountByStatus(ctx context.Context, assigneeID *string) (map[domain.TaskStatus]int, error) {
	b := &clauseBuilder{}
	if assigneeID != nil {
		b.add("assignee_staff_id=%s", *assigneeID)
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM tasks`+b.where()+` GROUP BY status`, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var (
			status domain.TaskStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *taskRepository) ListForPeriod(ctx context.Context, staffID string, from, to time.Time) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks
        WHERE assignee_staff_id=$1 AND due_at >= $2 AND due_at < $3
        ORDER BY due_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTask)
}

func (r *taskRepository) ListOverdueCandidates(ctx context.Context, now time.Time) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks
        WHERE status IN ('PENDING', 'IN_PROGRESS') AND due_at IS NOT NULL AND due_at < $1
        ORDER BY due_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTask)
}

func taskClauses(filter TaskFilter) *clauseBuilder {
	b := &clauseBuilder{}
	if filter.AssigneeID != nil {
		b.add("assignee_staff_id=%s", *filter.AssigneeID)
	}
	if filter.CreatedBy != nil {
		b.add("created_by=%s", *filter.CreatedBy)
	}
	if filter.ShiftID != nil {
		b.add("shift_id=%s", *filter.ShiftID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		b.add("status = ANY(%s)", statuses)
	}
	if len(filter.Priorities) > 0 {
		priorities := make([]string, len(filter.Priorities))
		for i, p := range filter.Priorities {
			priorities[i] = string(p)
		}
		b.add("priority = ANY(%s)", priorities)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		b.add("(LOWER(title) LIKE %[1]s OR LOWER(description) LIKE %[1]s)", likePattern(*filter.Search))
	}
	if filter.DueFrom != nil {
		b.add("due_at >= %s", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		b.add("due_at < %s", *filter.DueTo)
	}
	return b
}

func scanTask(row pgx.CollectableRow) (domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.AssigneeID,
		&task.CreatedBy,
		&task.Priority,
		&task.Status,
		&task.RequiresVerification,
		&task.DueAt,
		&task.ShiftID,
		&task.Tags,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	return task, err
}
