package inmemdb

import (
	"context"
	"time"

	"github.com/darasahub/darasa/core/principal"
)

type learnerRepository struct {
	db *DB
}

var _ principal.LearnerRepository = (*learnerRepository)(nil)

func NewLearnerRepository(db *DB) principal.LearnerRepository {
	return &learnerRepository{db: db}
}

func (repo *learnerRepository) CreateLearner(_ context.Context, l principal.Learner) (principal.Learner, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.learners {
		if l.Username != "" && existing.Username == l.Username {
			return principal.Learner{}, principal.ErrUsernameExists
		}
		if l.Email != "" && existing.Email == l.Email {
			return principal.Learner{}, principal.ErrEmailExists
		}
	}
	repo.db.learners[l.ID] = &l
	return l, nil
}

func (repo *learnerRepository) GetLearnerByID(_ context.Context, id string) (principal.Learner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.learners[id]; ok {
		return *l, nil
	}
	return principal.Learner{}, principal.ErrNotFound
}

func (repo *learnerRepository) GetLearnerByUsernameOrEmail(_ context.Context, uname string) (principal.Learner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, l := range repo.db.learners {
		if (l.Username == uname) || (l.Email == uname) {
			return *l, nil
		}
	}
	return principal.Learner{}, principal.ErrNotFound
}

func (repo *learnerRepository) UpdateLearner(_ context.Context, l principal.Learner) (principal.Learner, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.learners[l.ID]
	if !ok {
		return principal.Learner{}, principal.ErrNotFound
	}
	l.CreatedAt = orig.CreatedAt
	repo.db.learners[l.ID] = &l
	return l, nil
}

func (repo *learnerRepository) SetLearnerLastLogin(_ context.Context, id string, t time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l, ok := repo.db.learners[id]
	if !ok {
		return principal.ErrNotFound
	}
	l.LastLogin = t
	return nil
}
