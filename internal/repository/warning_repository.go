package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// WarningFilter narrows disciplinary record listings.
type WarningFilter struct {
	StaffID    *string
	ActiveOnly bool
	Now        time.Time
	Limit      int
	Offset     int
}

// WarningRepository persists disciplinary warnings.
type WarningRepository interface {
	Create(ctx context.Context, warning *domain.Warning) error
	Update(ctx context.Context, warning *domain.Warning) error
	GetByID(ctx context.Context, id string) (*domain.Warning, error)
	List(ctx context.Context, filter WarningFilter) ([]domain.Warning, error)
	ListByStaff(ctx context.Context, staffID string) ([]domain.Warning, error)
	// StaffWithLapsedLevels returns staff whose cached warning level is no longer
	// backed by an active warning of that level.
	StaffWithLapsedLevels(ctx context.Context, now time.Time) ([]string, error)
}

type warningRepository struct {
	pool *pgxpool.Pool
}

// NewWarningRepository instantiates repository.
func NewWarningRepository(pool *pgxpool.Pool) WarningRepository {
	return &warningRepository{pool: pool}
}

const warningColumns = `id, staff_id, issued_by, level, reason, automatic, issued_at, expires_at,
               acknowledged_at, revoked_at, revoked_by`

func (r *warningRepository) Create(ctx context.Context, warning *domain.Warning) error {
	const query = `
        INSERT INTO warnings (staff_id, issued_by, level, reason, automatic, issued_at, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		warning.StaffID,
		warning.IssuedBy,
		warning.Level,
		warning.Reason,
		warning.Automatic,
		warning.IssuedAt,
		warning.ExpiresAt,
	).Scan(&warning.ID)
}

func (r *warningRepository) Update(ctx context.Context, warning *domain.Warning) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `
        UPDATE warnings SET reason=$1, expires_at=$2, acknowledged_at=$3, revoked_at=$4, revoked_by=$5
        WHERE id=$6`,
		warning.Reason,
		warning.ExpiresAt,
		warning.AcknowledgedAt,
		warning.RevokedAt,
		warning.RevokedBy,
		warning.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *warningRepository) GetByID(ctx context.Context, id string) (*domain.Warning, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+warningColumns+` FROM warnings WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	warning, err := pgx.CollectOneRow(rows, scanWarning)
	if err != nil {
		return nil, err
	}
	return &warning, nil
}

func (r *warningRepository) List(ctx context.Context, filter WarningFilter) ([]domain.Warning, error) {
	b := &clauseBuilder{}
	if filter.StaffID != nil {
		b.add("staff_id=%s", *filter.StaffID)
	}
	if filter.ActiveOnly {
		b.raw("revoked_at IS NULL")
		b.add("(expires_at IS NULL OR expires_at > %s)", filter.Now)
	}
	query := `SELECT ` + warningColumns + ` FROM warnings` + b.where() +
		` ORDER BY issued_at DESC` + pageClause(filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanWarning)
}

func (r *warningRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.Warning, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+warningColumns+` FROM warnings WHERE staff_id=$1 ORDER BY issued_at DESC`, staffID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanWarning)
}

func (r *warningRepository) StaffWithLapsedLevels(ctx context.Context, now time.Time) ([]string, error) {
	const query = `
        SELECT m.id FROM staff_members m
        WHERE m.warning_level <> 'NONE'
          AND NOT EXISTS (
            SELECT 1 FROM warnings w
            WHERE w.staff_id = m.id AND w.level = m.warning_level AND w.revoked_at IS NULL
              AND (w.expires_at IS NULL OR w.expires_at > $1))`
	rows, err := conn(ctx, r.pool).Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanWarning(row pgx.CollectableRow) (domain.Warning, error) {
	var w domain.Warning
	err := row.Scan(
		&w.ID,
		&w.StaffID,
		&w.IssuedBy,
		&w.Level,
		&w.Reason,
		&w.Automatic,
		&w.IssuedAt,
		&w.ExpiresAt,
		&w.AcknowledgedAt,
		&w.RevokedAt,
		&w.RevokedBy,
	)
	return w, err
}
