package inmemdb

import (
	"context"
	"time"

	"github.com/darasahub/darasa/core/principal"
)

type staffRepository struct {
	db *DB
}

var _ principal.StaffRepository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) principal.StaffRepository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) CreateStaff(_ context.Context, s principal.Staff) (principal.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.staff {
		if s.Username != "" && existing.Username == s.Username {
			return principal.Staff{}, principal.ErrUsernameExists
		}
		if s.Email != "" && existing.Email == s.Email {
			return principal.Staff{}, principal.ErrEmailExists
		}
	}
	repo.db.staff[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) GetStaffByID(_ context.Context, id string) (principal.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.staff[id]; ok {
		return *s, nil
	}
	return principal.Staff{}, principal.ErrNotFound
}

func (repo *staffRepository) GetStaffByIDAndRole(_ context.Context, id, role string) (principal.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.staff[id]; ok && s.Role == role {
		return *s, nil
	}
	return principal.Staff{}, principal.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(_ context.Context, uname string) (principal.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.staff {
		if (s.Username == uname) || (s.Email == uname) {
			return *s, nil
		}
	}
	return principal.Staff{}, principal.ErrNotFound
}

func (repo *staffRepository) UpdateStaff(_ context.Context, s principal.Staff) (principal.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.staff[s.ID]
	if !ok {
		return principal.Staff{}, principal.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.staff[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) SetStaffLastLogin(_ context.Context, id string, t time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.staff[id]
	if !ok {
		return principal.ErrNotFound
	}
	s.LastLogin = t
	return nil
}
