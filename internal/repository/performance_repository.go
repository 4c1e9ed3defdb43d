package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// PerformanceFilter narrows evaluation listings.
type PerformanceFilter struct {
	StaffID      *string
	DepartmentID *string
	Grade        *domain.Grade
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// PerformanceRepository stores performance evaluations.
type PerformanceRepository interface {
	Create(ctx context.Context, record *domain.PerformanceRecord) error
	GetByID(ctx context.Context, id string) (*domain.PerformanceRecord, error)
	List(ctx context.Context, filter PerformanceFilter) ([]domain.PerformanceRecord, error)
	// ListRecentByStaff returns the latest n evaluations, newest first.
	ListRecentByStaff(ctx context.Context, staffID string, n int) ([]domain.PerformanceRecord, error)
}

type performanceRepository struct {
	pool *pgxpool.Pool
}

// NewPerformanceRepository instantiates repository.
func NewPerformanceRepository(pool *pgxpool.Pool) PerformanceRepository {
	return &performanceRepository{pool: pool}
}

const performanceColumns = `p.id, p.staff_id, COALESCE(p.evaluator_id::text, ''), p.period_start, p.period_end,
               p.task_score, p.punctuality_score, p.quality_score, p.rating_score, p.overall_score, p.grade,
               p.tasks_total, p.tasks_completed, p.shifts_total, p.shifts_on_time, p.comments, p.created_at`

func (r *performanceRepository) Create(ctx context.Context, record *domain.PerformanceRecord) error {
	const query = `
        INSERT INTO performance_records (staff_id, evaluator_id, period_start, period_end, task_score, punctuality_score,
            quality_score, rating_score, overall_score, grade, tasks_total, tasks_completed, shifts_total, shifts_on_time, comments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		record.StaffID,
		nullable(record.EvaluatorID),
		record.PeriodStart,
		record.PeriodEnd,
		record.TaskScore,
		record.PunctualityScore,
		record.QualityScore,
		record.RatingScore,
		record.OverallScore,
		record.Grade,
		record.TasksTotal,
		record.TasksCompleted,
		record.ShiftsTotal,
		record.ShiftsOnTime,
		record.Comments,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *performanceRepository) GetByID(ctx context.Context, id string) (*domain.PerformanceRecord, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+performanceColumns+` FROM performance_records p WHERE p.id=$1`, id)
	if err != nil {
		return nil, err
	}
	record, err := pgx.CollectOneRow(rows, scanPerformance)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *performanceRepository) List(ctx context.Context, filter PerformanceFilter) ([]domain.PerformanceRecord, error) {
	b := &clauseBuilder{}
	from := `performance_records p`
	if filter.StaffID != nil {
		b.add("p.staff_id=%s", *filter.StaffID)
	}
	if filter.DepartmentID != nil {
		from += ` JOIN staff_members m ON m.id = p.staff_id`
		b.add("m.department_id=%s", *filter.DepartmentID)
	}
	if filter.Grade != nil {
		b.add("p.grade=%s", *filter.Grade)
	}
	if filter.From != nil {
		b.add("p.period_end > %s", *filter.From)
	}
	if filter.To != nil {
		b.add("p.period_start < %s", *filter.To)
	}
	query := `SELECT ` + performanceColumns + ` FROM ` + from + b.where() +
		` ORDER BY p.created_at DESC` + pageClause(filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPerformance)
}

func (r *performanceRepository) ListRecentByStaff(ctx context.Context, staffID string, n int) ([]domain.PerformanceRecord, error) {
	return r.List(ctx, PerformanceFilter{StaffID: &staffID, Limit: n})
}

func scanPerformance(row pgx.CollectableRow) (domain.PerformanceRecord, error) {
	var rec domain.PerformanceRecord
	err := row.Scan(
		&rec.ID,
		&rec.StaffID,
		&rec.EvaluatorID,
		&rec.PeriodStart,
		&rec.PeriodEnd,
		&rec.TaskScore,
		&rec.PunctualityScore,
		&rec.QualityScore,
		&rec.RatingScore,
		&rec.OverallScore,
		&rec.Grade,
		&rec.TasksTotal,
		&rec.TasksCompleted,
		&rec.ShiftsTotal,
		&rec.ShiftsOnTime,
		&rec.Comments,
		&rec.CreatedAt,
	)
	return rec, err
}
