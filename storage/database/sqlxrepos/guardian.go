package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/darasahub/darasa/core/principal"
)

type guardianRepository struct {
	db *sqlx.DB
}

var _ principal.GuardianRepository = (*guardianRepository)(nil)

func NewGuardianRepository(db *sqlx.DB) principal.GuardianRepository {
	return &guardianRepository{db: db}
}

const guardianColumns = `id, name, username, email, role, relation, tenant_id,
	learner_id, is_active, password_hash, created_at, updated_at, last_login, deleted_at`

func (repo *guardianRepository) CreateGuardian(ctx context.Context, g principal.Guardian) (principal.Guardian, error) {
	const query = `
	INSERT INTO guardians (id, name, username, email, role, relation, tenant_id,
		learner_id, is_active, password_hash, created_at, updated_at, last_login)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := repo.db.ExecContext(ctx, query,
		g.ID, g.Name, g.Username, g.Email, g.Role, g.Relation,
		null.NewString(g.TenantID, g.TenantID != ""),
		null.NewString(g.LearnerID, g.LearnerID != ""),
		g.IsActive, null.BytesFrom(g.PasswordHash), g.CreatedAt, g.UpdatedAt, g.LastLogin,
	)
	if err != nil {
		return principal.Guardian{}, uniqueViolation(err)
	}

	for _, learnerID := range g.LearnerIDs {
		if err := repo.LinkLearner(ctx, g.ID, learnerID); err != nil {
			return principal.Guardian{}, err
		}
	}
	return g, nil
}

func (repo *guardianRepository) GetGuardianByID(ctx context.Context, id string) (principal.Guardian, error) {
	const query = `SELECT ` + guardianColumns + ` FROM guardians WHERE id = $1`

	var row guardianRow
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return principal.Guardian{}, notFound(err)
	}
	return repo.withLinks(ctx, row.guardian())
}

func (repo *guardianRepository) GetGuardianByUsernameOrEmail(ctx context.Context, uname string) (principal.Guardian, error) {
	const query = `SELECT ` + guardianColumns + ` FROM guardians WHERE username = $1 OR email = $1`

	var row guardianRow
	if err := repo.db.GetContext(ctx, &row, query, uname); err != nil {
		return principal.Guardian{}, notFound(err)
	}
	return repo.withLinks(ctx, row.guardian())
}

// FindGuardiansByLearner matches both the join table and the deprecated
// learner_id column, so links created before the migration still resolve.
func (repo *guardianRepository) FindGuardiansByLearner(ctx context.Context, learnerID string) ([]principal.Guardian, error) {
	const query = `
	SELECT ` + guardianColumns + `
	FROM guardians g
	WHERE g.deleted_at IS NULL
	  AND (g.learner_id = $1 OR EXISTS (
		SELECT 1 FROM guardian_learners gl
		WHERE gl.guardian_id = g.id AND gl.learner_id = $1))`

	var rows []guardianRow
	if err := repo.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, err
	}

	guardians := make([]principal.Guardian, 0, len(rows))
	for _, row := range rows {
		g, err := repo.withLinks(ctx, row.guardian())
		if err != nil {
			return nil, err
		}
		guardians = append(guardians, g)
	}
	return guardians, nil
}

func (repo *guardianRepository) LinkLearner(ctx context.Context, guardianID, learnerID string) error {
	const query = `
	INSERT INTO guardian_learners (guardian_id, learner_id)
	VALUES ($1, $2)
	ON CONFLICT (guardian_id, learner_id) DO NOTHING`

	_, err := repo.db.ExecContext(ctx, query, guardianID, learnerID)
	return err
}

func (repo *guardianRepository) UpdateGuardian(ctx context.Context, g principal.Guardian) (principal.Guardian, error) {
	const query = `
	UPDATE guardians
	SET name = $2, username = $3, email = $4, role = $5, relation = $6,
		tenant_id = $7, is_active = $8, password_hash = $9, updated_at = $10,
		deleted_at = $11
	WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, query,
		g.ID, g.Name, g.Username, g.Email, g.Role, g.Relation,
		null.NewString(g.TenantID, g.TenantID != ""),
		g.IsActive, null.BytesFrom(g.PasswordHash), g.UpdatedAt,
		null.TimeFromPtr(g.DeletedAt),
	)
	if err != nil {
		return principal.Guardian{}, uniqueViolation(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.Guardian{}, principal.ErrNotFound
	}
	return g, nil
}

func (repo *guardianRepository) SetGuardianLastLogin(ctx context.Context, id string, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE guardians SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.ErrNotFound
	}
	return nil
}

func (repo *guardianRepository) withLinks(ctx context.Context, g principal.Guardian) (principal.Guardian, error) {
	const query = `SELECT learner_id FROM guardian_learners WHERE guardian_id = $1 ORDER BY linked_at`

	if err := repo.db.SelectContext(ctx, &g.LearnerIDs, query, g.ID); err != nil {
		return principal.Guardian{}, err
	}
	return g, nil
}
