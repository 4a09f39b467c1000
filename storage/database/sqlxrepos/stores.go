package sqlxrepos

import (
	"github.com/jmoiron/sqlx"

	"github.com/darasahub/darasa/core/principal"
)

// Stores wires all postgres-backed repositories on a shared connection pool.
func Stores(db *sqlx.DB) principal.Stores {
	return principal.Stores{
		Staff:     NewStaffRepository(db),
		Learners:  NewLearnerRepository(db),
		Guardians: NewGuardianRepository(db),
	}
}
