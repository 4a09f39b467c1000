// Package inmemdb provides in-memory principal stores for tests and local
// development.
package inmemdb

import (
	"sync"

	"github.com/darasahub/darasa/core/principal"
)

type DB struct {
	mutex     sync.RWMutex
	staff     map[string]*principal.Staff
	learners  map[string]*principal.Learner
	guardians map[string]*principal.Guardian
	lockouts  map[string]*principal.Lockout
}

func Open() *DB {
	return &DB{
		staff:     make(map[string]*principal.Staff),
		learners:  make(map[string]*principal.Learner),
		guardians: make(map[string]*principal.Guardian),
		lockouts:  make(map[string]*principal.Lockout),
	}
}

// Stores returns the three principal repositories backed by this DB.
func Stores(db *DB) principal.Stores {
	return principal.Stores{
		Staff:     NewStaffRepository(db),
		Learners:  NewLearnerRepository(db),
		Guardians: NewGuardianRepository(db),
	}
}
