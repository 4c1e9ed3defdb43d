package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// ShiftFilter narrows schedule queries. From/To select shifts intersecting [From, To).
type ShiftFilter struct {
	StaffID      *string
	DepartmentID *string
	Statuses     []domain.ShiftStatus
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// ShiftRepository persists scheduled shifts.
type ShiftRepository interface {
	Create(ctx context.Context, shift *domain.Shift) error
	Update(ctx context.Context, shift *domain.Shift) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]domain.Shift, error)
	// FindOverlapping returns live shifts of staffID intersecting [start, end), ignoring excludeID.
	FindOverlapping(ctx context.Context, staffID string, start, end time.Time, excludeID string) ([]domain.Shift, error)
	// ListEndedScheduled returns shifts still SCHEDULED whose end has passed.
	ListEndedScheduled(ctx context.Context, now time.Time) ([]domain.Shift, error)
}

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository instantiates repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

const shiftColumns = `s.id, s.staff_id, s.start_at, s.end_at, s.shift_type, s.location, s.notes, s.status,
               s.checked_in_at, s.checked_out_at, s.late, COALESCE(s.created_by::text, ''), s.created_at, s.updated_at`

func (r *shiftRepository) Create(ctx context.Context, shift *domain.Shift) error {
	const query = `
        INSERT INTO shifts (staff_id, start_at, end_at, shift_type, location, notes, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		shift.StaffID,
		shift.StartAt,
		shift.EndAt,
		shift.ShiftType,
		shift.Location,
		shift.Notes,
		shift.Status,
		nullable(shift.CreatedBy),
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)
}

func (r *shiftRepository) Update(ctx context.Context, shift *domain.Shift) error {
	const query = `
        UPDATE shifts SET staff_id=$1, start_at=$2, end_at=$3, shift_type=$4, location=$5, notes=$6, status=$7,
            checked_in_at=$8, checked_out_at=$9, late=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		shift.StaffID,
		shift.StartAt,
		shift.EndAt,
		shift.ShiftType,
		shift.Location,
		shift.Notes,
		shift.Status,
		shift.CheckedInAt,
		shift.CheckedOutAt,
		shift.Late,
		shift.ID,
	).Scan(&shift.UpdatedAt)
}

func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM shifts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+shiftColumns+` FROM shifts s WHERE s.id=$1`, id)
	if err != nil {
		return nil, err
	}
	shift, err := pgx.CollectOneRow(rows, scanShift)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepository) List(ctx context.Context, filter ShiftFilter) ([]domain.Shift, error) {
	b := &clauseBuilder{}
	from := `shifts s`
	if filter.StaffID != nil {
		b.add("s.staff_id=%s", *filter.StaffID)
	}
	if filter.DepartmentID != nil {
		from += ` JOIN staff_members m ON m.id = s.staff_id`
		b.add("m.department_id=%s", *filter.DepartmentID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		b.add("s.status = ANY(%s)", statuses)
	}
	if filter.To != nil {
		b.add("s.start_at < %s", *filter.To)
	}
	if filter.From != nil {
		b.add("s.end_at > %s", *filter.From)
	}

	query := `SELECT ` + shiftColumns + ` FROM ` + from + b.where() +
		` ORDER BY s.start_at ASC` + pageClause(filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanShift)
}

func (r *shiftRepository) FindOverlapping(ctx context.Context, staffID string, start, end time.Time, excludeID string) ([]domain.Shift, error) {
	const query = `SELECT ` + shiftColumns + ` FROM shifts s
        WHERE s.staff_id=$1 AND s.status <> 'CANCELLED'
          AND s.start_at < $3 AND s.end_at > $2
          AND ($4::uuid IS NULL OR s.id <> $4::uuid)
        ORDER BY s.start_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, staffID, start, end, nullable(excludeID))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanShift)
}

func (r *shiftRepository) ListEndedScheduled(ctx context.Context, now time.Time) ([]domain.Shift, error) {
	const query = `SELECT ` + shiftColumns + ` FROM shifts s
        WHERE s.status = 'SCHEDULED' AND s.end_at <= $1
        ORDER BY s.end_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanShift)
}

func scanShift(row pgx.CollectableRow) (domain.Shift, error) {
	var shift domain.Shift
	err := row.Scan(
		&shift.ID,
		&shift.StaffID,
		&shift.StartAt,
		&shift.EndAt,
		&shift.ShiftType,
		&shift.Location,
		&shift.Notes,
		&shift.Status,
		&shift.CheckedInAt,
		&shift.CheckedOutAt,
		&shift.Late,
		&shift.CreatedBy,
		&shift.CreatedAt,
		&shift.UpdatedAt,
	)
	return shift, err
}
