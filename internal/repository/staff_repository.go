package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	UpdateWarningLevel(ctx context.Context, id string, level domain.WarningLevel) error
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
	Count(ctx context.Context, filter StaffFilter) (int, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role            *domain.StaffRole
	DepartmentID    *string
	Active          *bool
	MinWarningLevel *domain.WarningLevel
	Search          *string
	Limit           int
	Offset          int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, name, email, password_hash, role, department_id, position, phone, hire_date,
               active_flag, warning_level, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, email, password_hash, role, department_id, position, phone, hire_date, active_flag, warning_level)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	if staff.WarningLevel == "" {
		staff.WarningLevel = domain.WarningLevelNone
	}
	return conn(ctx, r.pool).QueryRow(ctx, query,
		staff.Name,
		strings.ToLower(staff.Email),
		staff.PasswordHash,
		staff.Role,
		staff.DepartmentID,
		staff.Position,
		staff.Phone,
		staff.HireDate,
		staff.Active,
		staff.WarningLevel,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET name=$1, email=$2, password_hash=$3, role=$4, department_id=$5, position=$6, phone=$7,
            hire_date=$8, active_flag=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	return conn(ctx, r.pool).QueryRow(ctx, query,
		staff.Name,
		strings.ToLower(staff.Email),
		staff.PasswordHash,
		staff.Role,
		staff.DepartmentID,
		staff.Position,
		staff.Phone,
		staff.HireDate,
		staff.Active,
		staff.ID,
	).Scan(&staff.UpdatedAt)
}

func (r *staffRepository) UpdateWarningLevel(ctx context.Context, id string, level domain.WarningLevel) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `UPDATE staff_members SET warning_level=$1, updated_at=NOW() WHERE id=$2`, level, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	return r.fetchSingle(ctx, `SELECT `+staffColumns+` FROM staff_members WHERE id=$1`, id)
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	return r.fetchSingle(ctx, `SELECT `+staffColumns+` FROM staff_members WHERE email=$1`, strings.ToLower(email))
}

func (r *staffRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.StaffMember, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	staff, err := pgx.CollectOneRow(rows, scanStaff)
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	b := staffClauses(filter)
	query := `SELECT ` + staffColumns + ` FROM staff_members` + b.where() +
		` ORDER BY name ASC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanStaff)
}

func (r *staffRepository) Count(ctx context.Context, filter StaffFilter) (int, error) {
	b := staffClauses(filter)
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM staff_members`+b.where(), b.args...).Scan(&n)
	return n, err
}

func staffClauses(filter StaffFilter) *clauseBuilder {
	b := &clauseBuilder{}
	if filter.Role != nil {
		b.add("role=%s", *filter.Role)
	}
	if filter.DepartmentID != nil {
		b.add("department_id=%s", *filter.DepartmentID)
	}
	if filter.Active != nil {
		b.add("active_flag=%s", *filter.Active)
	}
	if filter.MinWarningLevel != nil {
		levels := []string{}
		for _, lvl := range []domain.WarningLevel{
			domain.WarningLevelVerbal, domain.WarningLevelWritten,
			domain.WarningLevelFinal, domain.WarningLevelTerminationReview,
		} {
			if lvl.Rank() >= filter.MinWarningLevel.Rank() {
				levels = append(levels, string(lvl))
			}
		}
		b.add("warning_level = ANY(%s)", levels)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		b.add("(LOWER(name) LIKE %[1]s OR LOWER(email) LIKE %[1]s)", likePattern(*filter.Search))
	}
	return b
}

func scanStaff(row pgx.CollectableRow) (domain.StaffMember, error) {
	var staff domain.StaffMember
	err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.DepartmentID,
		&staff.Position,
		&staff.Phone,
		&staff.HireDate,
		&staff.Active,
		&staff.WarningLevel,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
	return staff, err
}
