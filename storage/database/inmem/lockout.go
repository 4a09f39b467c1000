package inmemdb

import (
	"context"
	"time"

	"github.com/darasahub/darasa/core/principal"
)

type lockoutRepository struct {
	db *DB
}

var _ principal.LockoutRepository = (*lockoutRepository)(nil)

func NewLockoutRepository(db *DB) principal.LockoutRepository {
	return &lockoutRepository{db: db}
}

func (repo *lockoutRepository) GetLockout(_ context.Context, principalID string) (principal.Lockout, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if state, ok := repo.db.lockouts[principalID]; ok {
		return *state, nil
	}
	return principal.Lockout{PrincipalID: principalID}, nil
}

// RecordFailure increments under the write lock, so two parallel failed
// attempts can never both observe the pre-increment count.
func (repo *lockoutRepository) RecordFailure(
	_ context.Context,
	principalID string,
	threshold int,
	cooldown time.Duration,
	now time.Time,
) (principal.Lockout, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	state, ok := repo.db.lockouts[principalID]
	if !ok {
		state = &principal.Lockout{PrincipalID: principalID}
		repo.db.lockouts[principalID] = state
	}
	state.FailedAttempts++
	state.UpdatedAt = now
	if state.FailedAttempts >= threshold {
		until := now.Add(cooldown)
		state.LockedUntil = &until
	}
	return *state, nil
}

func (repo *lockoutRepository) ClearLockout(_ context.Context, principalID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	state, ok := repo.db.lockouts[principalID]
	if !ok {
		return nil
	}
	state.FailedAttempts = 0
	state.LockedUntil = nil
	return nil
}
