// Package sqlxrepos implements the principal stores on postgres via sqlx.
package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/darasahub/darasa/core/principal"
)

// row types bridge nullable columns to the domain structs.

type staffRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	TenantID     string      `db:"tenant_id"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    time.Time   `db:"last_login"`
	DeletedAt    null.Time   `db:"deleted_at"`
}

func (r staffRow) staff() principal.Staff {
	return principal.Staff{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Role:         r.Role,
		TenantID:     r.TenantID,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
		DeletedAt:    r.DeletedAt.Ptr(),
	}
}

type learnerRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	TenantID     string      `db:"tenant_id"`
	AdmissionNo  string      `db:"admission_no"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    time.Time   `db:"last_login"`
	DeletedAt    null.Time   `db:"deleted_at"`
}

func (r learnerRow) learner() principal.Learner {
	return principal.Learner{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Role:         r.Role,
		TenantID:     r.TenantID,
		AdmissionNo:  r.AdmissionNo,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
		DeletedAt:    r.DeletedAt.Ptr(),
	}
}

type guardianRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	Relation     string      `db:"relation"`
	TenantID     null.String `db:"tenant_id"`
	LearnerID    null.String `db:"learner_id"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    time.Time   `db:"last_login"`
	DeletedAt    null.Time   `db:"deleted_at"`
}

func (r guardianRow) guardian() principal.Guardian {
	return principal.Guardian{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Role:         r.Role,
		Relation:     r.Relation,
		TenantID:     r.TenantID.String,
		LearnerID:    r.LearnerID.String,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
		DeletedAt:    r.DeletedAt.Ptr(),
	}
}

type lockoutRow struct {
	PrincipalID    string    `db:"principal_id"`
	FailedAttempts int       `db:"failed_attempts"`
	LockedUntil    null.Time `db:"locked_until"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r lockoutRow) lockout() principal.Lockout {
	return principal.Lockout{
		PrincipalID:    r.PrincipalID,
		FailedAttempts: r.FailedAttempts,
		LockedUntil:    r.LockedUntil.Ptr(),
		UpdatedAt:      r.UpdatedAt,
	}
}

func notFound(err error) error {
	if err == sql.ErrNoRows {
		return principal.ErrNotFound
	}
	return err
}
