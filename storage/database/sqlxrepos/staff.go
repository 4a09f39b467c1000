package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/darasahub/darasa/core/principal"
)

type staffRepository struct {
	db *sqlx.DB
}

var _ principal.StaffRepository = (*staffRepository)(nil)

func NewStaffRepository(db *sqlx.DB) principal.StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `id, name, username, email, role, tenant_id, is_active,
	password_hash, created_at, updated_at, last_login, deleted_at`

func (repo *staffRepository) CreateStaff(ctx context.Context, s principal.Staff) (principal.Staff, error) {
	const query = `
	INSERT INTO staff (id, name, username, email, role, tenant_id, is_active,
		password_hash, created_at, updated_at, last_login)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := repo.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Username, s.Email, s.Role, s.TenantID, s.IsActive,
		null.BytesFrom(s.PasswordHash), s.CreatedAt, s.UpdatedAt, s.LastLogin,
	)
	if err != nil {
		return principal.Staff{}, uniqueViolation(err)
	}
	return s, nil
}

func (repo *staffRepository) GetStaffByID(ctx context.Context, id string) (principal.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`

	var row staffRow
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return principal.Staff{}, notFound(err)
	}
	return row.staff(), nil
}

func (repo *staffRepository) GetStaffByIDAndRole(ctx context.Context, id, role string) (principal.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE id = $1 AND role = $2`

	var row staffRow
	if err := repo.db.GetContext(ctx, &row, query, id, role); err != nil {
		return principal.Staff{}, notFound(err)
	}
	return row.staff(), nil
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(ctx context.Context, uname string) (principal.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE username = $1 OR email = $1`

	var row staffRow
	if err := repo.db.GetContext(ctx, &row, query, uname); err != nil {
		return principal.Staff{}, notFound(err)
	}
	return row.staff(), nil
}

func (repo *staffRepository) UpdateStaff(ctx context.Context, s principal.Staff) (principal.Staff, error) {
	const query = `
	UPDATE staff
	SET name = $2, username = $3, email = $4, role = $5, tenant_id = $6,
		is_active = $7, password_hash = $8, updated_at = $9, deleted_at = $10
	WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Username, s.Email, s.Role, s.TenantID,
		s.IsActive, null.BytesFrom(s.PasswordHash), s.UpdatedAt, null.TimeFromPtr(s.DeletedAt),
	)
	if err != nil {
		return principal.Staff{}, uniqueViolation(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.Staff{}, principal.ErrNotFound
	}
	return s, nil
}

func (repo *staffRepository) SetStaffLastLogin(ctx context.Context, id string, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE staff SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.ErrNotFound
	}
	return nil
}

// uniqueViolation maps postgres unique constraint errors to the domain errors.
func uniqueViolation(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "username"):
			return principal.ErrUsernameExists
		case strings.Contains(pqErr.Constraint, "email"):
			return principal.ErrEmailExists
		}
	}
	return err
}
