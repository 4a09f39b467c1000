package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/darasahub/darasa/core/principal"
)

type lockoutRepository struct {
	db *sqlx.DB
}

var _ principal.LockoutRepository = (*lockoutRepository)(nil)

func NewLockoutRepository(db *sqlx.DB) principal.LockoutRepository {
	return &lockoutRepository{db: db}
}

func (repo *lockoutRepository) GetLockout(ctx context.Context, principalID string) (principal.Lockout, error) {
	const query = `
	SELECT principal_id, failed_attempts, locked_until, updated_at
	FROM lockouts WHERE principal_id = $1`

	var row lockoutRow
	if err := repo.db.GetContext(ctx, &row, query, principalID); err != nil {
		if notFound(err) == principal.ErrNotFound {
			return principal.Lockout{PrincipalID: principalID}, nil
		}
		return principal.Lockout{}, err
	}
	return row.lockout(), nil
}

// RecordFailure is a single upsert, so two parallel failed attempts can
// never both observe the pre-increment count.
func (repo *lockoutRepository) RecordFailure(
	ctx context.Context,
	principalID string,
	threshold int,
	cooldown time.Duration,
	now time.Time,
) (principal.Lockout, error) {
	const query = `
	INSERT INTO lockouts (principal_id, failed_attempts, locked_until, updated_at)
	VALUES ($1, 1, CASE WHEN 1 >= $2 THEN $3::timestamptz END, $4)
	ON CONFLICT (principal_id) DO UPDATE SET
		failed_attempts = lockouts.failed_attempts + 1,
		locked_until = CASE
			WHEN lockouts.failed_attempts + 1 >= $2 THEN $3::timestamptz
			ELSE lockouts.locked_until
		END,
		updated_at = $4
	RETURNING principal_id, failed_attempts, locked_until, updated_at`

	until := now.Add(cooldown)

	var row lockoutRow
	if err := repo.db.GetContext(ctx, &row, query, principalID, threshold, until, now); err != nil {
		return principal.Lockout{}, err
	}
	return row.lockout(), nil
}

func (repo *lockoutRepository) ClearLockout(ctx context.Context, principalID string) error {
	const query = `
	UPDATE lockouts SET failed_attempts = 0, locked_until = NULL, updated_at = now()
	WHERE principal_id = $1`

	_, err := repo.db.ExecContext(ctx, query, principalID)
	return err
}
