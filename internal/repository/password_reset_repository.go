package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
	// InvalidateForStaff consumes every outstanding token of the staff member.
	InvalidateForStaff(ctx context.Context, staffID string) (int64, error)
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (staff_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		token.StaffID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	const query = `
        SELECT id, staff_id, token, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1`
	var token domain.PasswordResetToken
	if err := conn(ctx, r.pool).QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.StaffID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed consumes the token; a token that was already used reports no rows.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	var usedID string
	return conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE password_reset_tokens SET used_at=NOW() WHERE id=$1 AND used_at IS NULL RETURNING id`, id,
	).Scan(&usedID)
}

func (r *passwordResetRepository) InvalidateForStaff(ctx context.Context, staffID string) (int64, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE password_reset_tokens SET used_at=NOW() WHERE staff_id=$1 AND used_at IS NULL`, staffID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
