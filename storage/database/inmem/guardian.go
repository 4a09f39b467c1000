package inmemdb

import (
	"context"
	"time"

	"github.com/darasahub/darasa/core/principal"
)

type guardianRepository struct {
	db *DB
}

var _ principal.GuardianRepository = (*guardianRepository)(nil)

func NewGuardianRepository(db *DB) principal.GuardianRepository {
	return &guardianRepository{db: db}
}

func (repo *guardianRepository) CreateGuardian(_ context.Context, g principal.Guardian) (principal.Guardian, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.guardians {
		if g.Username != "" && existing.Username == g.Username {
			return principal.Guardian{}, principal.ErrUsernameExists
		}
		if g.Email != "" && existing.Email == g.Email {
			return principal.Guardian{}, principal.ErrEmailExists
		}
	}
	repo.db.guardians[g.ID] = &g
	return g, nil
}

func (repo *guardianRepository) GetGuardianByID(_ context.Context, id string) (principal.Guardian, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.guardians[id]; ok {
		return *g, nil
	}
	return principal.Guardian{}, principal.ErrNotFound
}

func (repo *guardianRepository) GetGuardianByUsernameOrEmail(_ context.Context, uname string) (principal.Guardian, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, g := range repo.db.guardians {
		if (g.Username == uname) || (g.Email == uname) {
			return *g, nil
		}
	}
	return principal.Guardian{}, principal.ErrNotFound
}

func (repo *guardianRepository) FindGuardiansByLearner(_ context.Context, learnerID string) ([]principal.Guardian, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var guardians []principal.Guardian
	for _, g := range repo.db.guardians {
		if g.DeletedAt != nil {
			continue
		}
		for _, id := range g.LinkedLearners() {
			if id == learnerID {
				guardians = append(guardians, *g)
				break
			}
		}
	}
	return guardians, nil
}

func (repo *guardianRepository) LinkLearner(_ context.Context, guardianID, learnerID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.guardians[guardianID]
	if !ok {
		return principal.ErrNotFound
	}
	for _, id := range g.LearnerIDs {
		if id == learnerID {
			return nil
		}
	}
	g.LearnerIDs = append(g.LearnerIDs, learnerID)
	return nil
}

func (repo *guardianRepository) UpdateGuardian(_ context.Context, g principal.Guardian) (principal.Guardian, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.guardians[g.ID]
	if !ok {
		return principal.Guardian{}, principal.ErrNotFound
	}
	g.CreatedAt = orig.CreatedAt
	repo.db.guardians[g.ID] = &g
	return g, nil
}

func (repo *guardianRepository) SetGuardianLastLogin(_ context.Context, id string, t time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.guardians[id]
	if !ok {
		return principal.ErrNotFound
	}
	g.LastLogin = t
	return nil
}
