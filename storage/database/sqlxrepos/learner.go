package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/darasahub/darasa/core/principal"
)

type learnerRepository struct {
	db *sqlx.DB
}

var _ principal.LearnerRepository = (*learnerRepository)(nil)

func NewLearnerRepository(db *sqlx.DB) principal.LearnerRepository {
	return &learnerRepository{db: db}
}

const learnerColumns = `id, name, username, email, role, tenant_id, admission_no,
	is_active, password_hash, created_at, updated_at, last_login, deleted_at`

func (repo *learnerRepository) CreateLearner(ctx context.Context, l principal.Learner) (principal.Learner, error) {
	const query = `
	INSERT INTO learners (id, name, username, email, role, tenant_id, admission_no,
		is_active, password_hash, created_at, updated_at, last_login)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := repo.db.ExecContext(ctx, query,
		l.ID, l.Name, l.Username, l.Email, l.Role, l.TenantID, l.AdmissionNo,
		l.IsActive, null.BytesFrom(l.PasswordHash), l.CreatedAt, l.UpdatedAt, l.LastLogin,
	)
	if err != nil {
		return principal.Learner{}, uniqueViolation(err)
	}
	return l, nil
}

func (repo *learnerRepository) GetLearnerByID(ctx context.Context, id string) (principal.Learner, error) {
	const query = `SELECT ` + learnerColumns + ` FROM learners WHERE id = $1`

	var row learnerRow
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return principal.Learner{}, notFound(err)
	}
	return row.learner(), nil
}

func (repo *learnerRepository) GetLearnerByUsernameOrEmail(ctx context.Context, uname string) (principal.Learner, error) {
	const query = `SELECT ` + learnerColumns + ` FROM learners WHERE username = $1 OR email = $1`

	var row learnerRow
	if err := repo.db.GetContext(ctx, &row, query, uname); err != nil {
		return principal.Learner{}, notFound(err)
	}
	return row.learner(), nil
}

func (repo *learnerRepository) UpdateLearner(ctx context.Context, l principal.Learner) (principal.Learner, error) {
	const query = `
	UPDATE learners
	SET name = $2, username = $3, email = $4, role = $5, tenant_id = $6,
		admission_no = $7, is_active = $8, password_hash = $9, updated_at = $10,
		deleted_at = $11
	WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, query,
		l.ID, l.Name, l.Username, l.Email, l.Role, l.TenantID,
		l.AdmissionNo, l.IsActive, null.BytesFrom(l.PasswordHash), l.UpdatedAt,
		null.TimeFromPtr(l.DeletedAt),
	)
	if err != nil {
		return principal.Learner{}, uniqueViolation(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.Learner{}, principal.ErrNotFound
	}
	return l, nil
}

func (repo *learnerRepository) SetLearnerLastLogin(ctx context.Context, id string, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE learners SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.ErrNotFound
	}
	return nil
}
