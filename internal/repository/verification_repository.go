package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// VerificationFilter narrows verification listings.
type VerificationFilter struct {
	TaskID      *string
	SubmittedBy *string
	Status      *domain.VerificationStatus
	Limit       int
	Offset      int
}

// VerificationRepository persists task completion submissions.
type VerificationRepository interface {
	Create(ctx context.Context, v *domain.Verification) error
	Update(ctx context.Context, v *domain.Verification) error
	GetByID(ctx context.Context, id string) (*domain.Verification, error)
	List(ctx context.Context, filter VerificationFilter) ([]domain.Verification, error)
	HasPending(ctx context.Context, taskID string) (bool, error)
	CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error)
	// ListReviewedForStaff returns verifications submitted by staffID and reviewed inside [from, to).
	ListReviewedForStaff(ctx context.Context, staffID string, from, to time.Time) ([]domain.Verification, error)
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository instantiates repository.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

const verificationColumns = `id, task_id, submitted_by, notes, evidence_urls, status, reviewer_id, review_comment,
               quality_rating, submitted_at, reviewed_at`

func (r *verificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	const query = `
        INSERT INTO verifications (task_id, submitted_by, notes, evidence_urls, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, submitted_at`
	if v.EvidenceURLs == nil {
		v.EvidenceURLs = []string{}
	}
	return conn(ctx, r.pool).QueryRow(ctx, query,
		v.TaskID,
		v.SubmittedBy,
		v.Notes,
		v.EvidenceURLs,
		v.Status,
	).Scan(&v.ID, &v.SubmittedAt)
}

func (r *verificationRepository) Update(ctx context.Context, v *domain.Verification) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `
        UPDATE verifications SET status=$1, reviewer_id=$2, review_comment=$3, quality_rating=$4, reviewed_at=$5
        WHERE id=$6`,
		v.Status,
		v.ReviewerID,
		v.ReviewComment,
		v.QualityRating,
		v.ReviewedAt,
		v.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *verificationRepository) GetByID(ctx context.Context, id string) (*domain.Verification, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+verificationColumns+` FROM verifications WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectOneRow(rows, scanVerification)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *verificationRepository) List(ctx context.Context, filter VerificationFilter) ([]domain.Verification, error) {
	b := &clauseBuilder{}
	if filter.TaskID != nil {
		b.add("task_id=%s", *filter.TaskID)
	}
	if filter.SubmittedBy != nil {
		b.add("submitted_by=%s", *filter.SubmittedBy)
	}
	if filter.Status != nil {
		b.add("status=%s", *filter.Status)
	}
	query := `SELECT ` + verificationColumns + ` FROM verifications` + b.where() +
		` ORDER BY submitted_at DESC` + pageClause(filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanVerification)
}

func (r *verificationRepository) HasPending(ctx context.Context, taskID string) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM verifications WHERE task_id=$1 AND status='PENDING')`, taskID,
	).Scan(&exists)
	return exists, err
}

func (r *verificationRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM verifications WHERE status=$1`, status).Scan(&n)
	return n, err
}

func (r *verificationRepository) ListReviewedForStaff(ctx context.Context, staffID string, from, to time.Time) ([]domain.Verification, error) {
	const query = `SELECT ` + verificationColumns + ` FROM verifications
        WHERE submitted_by=$1 AND status <> 'PENDING' AND reviewed_at >= $2 AND reviewed_at < $3
        ORDER BY reviewed_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanVerification)
}

func scanVerification(row pgx.CollectableRow) (domain.Verification, error) {
	var v domain.Verification
	err := row.Scan(
		&v.ID,
		&v.TaskID,
		&v.SubmittedBy,
		&v.Notes,
		&v.EvidenceURLs,
		&v.Status,
		&v.ReviewerID,
		&v.ReviewComment,
		&v.QualityRating,
		&v.SubmittedAt,
		&v.ReviewedAt,
	)
	return v, err
}
