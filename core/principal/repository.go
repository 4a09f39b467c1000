package principal

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned whenever a lookup misses, the record is
	// soft-deleted, or a role-scoped lookup hits a record with another role.
	ErrNotFound = errors.New("principal not found")

	ErrUsernameExists = errors.New("a principal with this username already exists")
	ErrEmailExists    = errors.New("a principal with this email already exists")
)

type (
	// StaffRepository backs the single shared staff/admin store.
	StaffRepository interface {
		CreateStaff(ctx context.Context, s Staff) (Staff, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		// GetStaffByIDAndRole misses unless the record carries exactly that role.
		GetStaffByIDAndRole(ctx context.Context, id, role string) (Staff, error)
		GetStaffByUsernameOrEmail(ctx context.Context, uname string) (Staff, error)
		UpdateStaff(ctx context.Context, s Staff) (Staff, error)
		SetStaffLastLogin(ctx context.Context, id string, t time.Time) error
	}

	LearnerRepository interface {
		CreateLearner(ctx context.Context, l Learner) (Learner, error)
		GetLearnerByID(ctx context.Context, id string) (Learner, error)
		GetLearnerByUsernameOrEmail(ctx context.Context, uname string) (Learner, error)
		UpdateLearner(ctx context.Context, l Learner) (Learner, error)
		SetLearnerLastLogin(ctx context.Context, id string, t time.Time) error
	}

	GuardianRepository interface {
		CreateGuardian(ctx context.Context, g Guardian) (Guardian, error)
		GetGuardianByID(ctx context.Context, id string) (Guardian, error)
		GetGuardianByUsernameOrEmail(ctx context.Context, uname string) (Guardian, error)
		// FindGuardiansByLearner returns the guardians currently linked to the
		// learner, honoring both the set-valued linkage and the deprecated
		// singular alias.
		FindGuardiansByLearner(ctx context.Context, learnerID string) ([]Guardian, error)
		LinkLearner(ctx context.Context, guardianID, learnerID string) error
		UpdateGuardian(ctx context.Context, g Guardian) (Guardian, error)
		SetGuardianLastLogin(ctx context.Context, id string, t time.Time) error
	}

	// LockoutRepository persists per-principal failed-attempt state.
	// RecordFailure must be atomic per principal: two concurrent failed
	// attempts may never both observe the pre-increment count.
	LockoutRepository interface {
		GetLockout(ctx context.Context, principalID string) (Lockout, error) // zero value when absent
		RecordFailure(ctx context.Context, principalID string, threshold int, cooldown time.Duration, now time.Time) (Lockout, error)
		ClearLockout(ctx context.Context, principalID string) error
	}

	// Stores bundles the three disjoint principal stores.
	Stores struct {
		Staff     StaffRepository
		Learners  LearnerRepository
		Guardians GuardianRepository
	}
)
