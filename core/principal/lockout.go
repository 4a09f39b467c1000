package principal

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDeactivated = errors.New("account deactivated")
	ErrLocked      = errors.New("account temporarily locked")

	nowFunc = time.Now // mockable
)

// Lockout is the failed-attempt state attached 1:1 to a principal. It is
// created implicitly on the first failed attempt and never destroyed; a lock
// expires by the clock alone, there is no explicit unlock.
type Lockout struct {
	PrincipalID    string     `db:"principal_id"`
	FailedAttempts int        `db:"failed_attempts"`
	LockedUntil    *time.Time `db:"locked_until"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Active reports whether the lock is in force at the given instant.
// An elapsed LockedUntil means unlocked; the transition is evaluated lazily
// on each authorization attempt, never by a background sweep.
func (l Lockout) Active(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// LockoutTracker drives the per-principal lockout state machine.
type LockoutTracker struct {
	repo      LockoutRepository
	threshold int
	cooldown  time.Duration
}

func NewLockoutTracker(repo LockoutRepository, threshold int, cooldown time.Duration) *LockoutTracker {
	return &LockoutTracker{repo: repo, threshold: threshold, cooldown: cooldown}
}

// IsLocked reports whether the principal is locked right now.
func (t *LockoutTracker) IsLocked(ctx context.Context, principalID string) (bool, error) {
	state, err := t.repo.GetLockout(ctx, principalID)
	if err != nil {
		return false, err
	}
	return state.Active(nowFunc()), nil
}

// RecordFailure registers a failed password check. It returns the resulting
// state and whether this failure crossed the threshold, so the caller can
// notify the account holder exactly once per lock.
func (t *LockoutTracker) RecordFailure(ctx context.Context, principalID string) (Lockout, bool, error) {
	state, err := t.repo.RecordFailure(ctx, principalID, t.threshold, t.cooldown, nowFunc())
	if err != nil {
		return Lockout{}, false, err
	}
	justLocked := state.FailedAttempts == t.threshold && state.LockedUntil != nil
	return state, justLocked, nil
}

// RecordSuccess resets the counter and clears any lock timestamp.
func (t *LockoutTracker) RecordSuccess(ctx context.Context, principalID string) error {
	return t.repo.ClearLockout(ctx, principalID)
}
