package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// AlertFilter selects a recipient's alerts.
type AlertFilter struct {
	RecipientID string
	UnreadOnly  bool
	Type        *domain.AlertType
	Limit       int
	Offset      int
}

// AlertRepository persists in-app alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]domain.Alert, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id, recipientID string) error
}

type alertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository instantiates repository.
func NewAlertRepository(pool *pgxpool.Pool) AlertRepository {
	return &alertRepository{pool: pool}
}

const alertColumns = `id, recipient_id, alert_type, severity, title, message, reference_id, read_at, created_at`

func (r *alertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	const query = `
        INSERT INTO alerts (recipient_id, alert_type, severity, title, message, reference_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		alert.RecipientID,
		alert.Type,
		alert.Severity,
		alert.Title,
		alert.Message,
		alert.ReferenceID,
	).Scan(&alert.ID, &alert.CreatedAt)
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	alert, err := pgx.CollectOneRow(rows, scanAlert)
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]domain.Alert, error) {
	b := &clauseBuilder{}
	b.add("recipient_id=%s", filter.RecipientID)
	if filter.UnreadOnly {
		b.raw("read_at IS NULL")
	}
	if filter.Type != nil {
		b.add("alert_type=%s", *filter.Type)
	}
	query := `SELECT ` + alertColumns + ` FROM alerts` + b.where() +
		` ORDER BY created_at DESC` + pageClause(filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanAlert)
}

func (r *alertRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE recipient_id=$1 AND read_at IS NULL`, recipientID,
	).Scan(&n)
	return n, err
}

// MarkRead is idempotent; an alert that does not belong to recipientID reports no rows.
func (r *alertRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE alerts SET read_at=COALESCE(read_at, NOW()) WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *alertRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE alerts SET read_at=NOW() WHERE recipient_id=$1 AND read_at IS NULL`, recipientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *alertRepository) Delete(ctx context.Context, id, recipientID string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM alerts WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAlert(row pgx.CollectableRow) (domain.Alert, error) {
	var alert domain.Alert
	err := row.Scan(
		&alert.ID,
		&alert.RecipientID,
		&alert.Type,
		&alert.Severity,
		&alert.Title,
		&alert.Message,
		&alert.ReferenceID,
		&alert.ReadAt,
		&alert.CreatedAt,
	)
	return alert, err
}
