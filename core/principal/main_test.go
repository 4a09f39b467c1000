package principal

import (
	"context"
	"sync"
	"time"

	"github.com/darasahub/darasa/core"
)

// memStore is a single in-memory backend for all four repositories,
// sufficient for exercising resolution and lockout semantics.
type memStore struct {
	mu        sync.RWMutex
	staff     map[string]Staff
	learners  map[string]Learner
	guardians map[string]Guardian
	lockouts  map[string]Lockout
}

var (
	_ StaffRepository    = (*memStore)(nil)
	_ LearnerRepository  = (*memStore)(nil)
	_ GuardianRepository = (*memStore)(nil)
	_ LockoutRepository  = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		staff:     make(map[string]Staff),
		learners:  make(map[string]Learner),
		guardians: make(map[string]Guardian),
		lockouts:  make(map[string]Lockout),
	}
}

func (m *memStore) stores() Stores {
	return Stores{Staff: m, Learners: m, Guardians: m}
}

func (m *memStore) CreateStaff(_ context.Context, s Staff) (Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.staff {
		if s.Username != "" && existing.Username == s.Username {
			return Staff{}, ErrUsernameExists
		}
		if s.Email != "" && existing.Email == s.Email {
			return Staff{}, ErrEmailExists
		}
	}
	m.staff[s.ID] = s
	return s, nil
}

func (m *memStore) GetStaffByID(_ context.Context, id string) (Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return Staff{}, ErrNotFound
}

func (m *memStore) GetStaffByIDAndRole(_ context.Context, id, role string) (Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.staff[id]; ok && s.Role == role {
		return s, nil
	}
	return Staff{}, ErrNotFound
}

func (m *memStore) GetStaffByUsernameOrEmail(_ context.Context, uname string) (Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.staff {
		if s.Username == uname || s.Email == uname {
			return s, nil
		}
	}
	return Staff{}, ErrNotFound
}

func (m *memStore) UpdateStaff(_ context.Context, s Staff) (Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[s.ID]; !ok {
		return Staff{}, ErrNotFound
	}
	m.staff[s.ID] = s
	return s, nil
}

func (m *memStore) SetStaffLastLogin(_ context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staff[id]
	if !ok {
		return ErrNotFound
	}
	s.LastLogin = t
	m.staff[id] = s
	return nil
}

func (m *memStore) CreateLearner(_ context.Context, l Learner) (Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.learners {
		if l.Username != "" && existing.Username == l.Username {
			return Learner{}, ErrUsernameExists
		}
		if l.Email != "" && existing.Email == l.Email {
			return Learner{}, ErrEmailExists
		}
	}
	m.learners[l.ID] = l
	return l, nil
}

func (m *memStore) GetLearnerByID(_ context.Context, id string) (Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.learners[id]; ok {
		return l, nil
	}
	return Learner{}, ErrNotFound
}

func (m *memStore) GetLearnerByUsernameOrEmail(_ context.Context, uname string) (Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.learners {
		if l.Username == uname || l.Email == uname {
			return l, nil
		}
	}
	return Learner{}, ErrNotFound
}

func (m *memStore) UpdateLearner(_ context.Context, l Learner) (Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.learners[l.ID]; !ok {
		return Learner{}, ErrNotFound
	}
	m.learners[l.ID] = l
	return l, nil
}

func (m *memStore) SetLearnerLastLogin(_ context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.learners[id]
	if !ok {
		return ErrNotFound
	}
	l.LastLogin = t
	m.learners[id] = l
	return nil
}

func (m *memStore) CreateGuardian(_ context.Context, g Guardian) (Guardian, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.guardians {
		if g.Username != "" && existing.Username == g.Username {
			return Guardian{}, ErrUsernameExists
		}
		if g.Email != "" && existing.Email == g.Email {
			return Guardian{}, ErrEmailExists
		}
	}
	m.guardians[g.ID] = g
	return g, nil
}

func (m *memStore) GetGuardianByID(_ context.Context, id string) (Guardian, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.guardians[id]; ok {
		return g, nil
	}
	return Guardian{}, ErrNotFound
}

func (m *memStore) GetGuardianByUsernameOrEmail(_ context.Context, uname string) (Guardian, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.guardians {
		if g.Username == uname || g.Email == uname {
			return g, nil
		}
	}
	return Guardian{}, ErrNotFound
}

func (m *memStore) FindGuardiansByLearner(_ context.Context, learnerID string) ([]Guardian, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var guardians []Guardian
	for _, g := range m.guardians {
		if g.DeletedAt != nil {
			continue
		}
		for _, id := range g.LinkedLearners() {
			if id == learnerID {
				guardians = append(guardians, g)
				break
			}
		}
	}
	return guardians, nil
}

func (m *memStore) LinkLearner(_ context.Context, guardianID, learnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guardians[guardianID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range g.LearnerIDs {
		if id == learnerID {
			return nil
		}
	}
	g.LearnerIDs = append(g.LearnerIDs, learnerID)
	m.guardians[guardianID] = g
	return nil
}

func (m *memStore) UpdateGuardian(_ context.Context, g Guardian) (Guardian, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.guardians[g.ID]; !ok {
		return Guardian{}, ErrNotFound
	}
	m.guardians[g.ID] = g
	return g, nil
}

func (m *memStore) SetGuardianLastLogin(_ context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guardians[id]
	if !ok {
		return ErrNotFound
	}
	g.LastLogin = t
	m.guardians[id] = g
	return nil
}

func (m *memStore) GetLockout(_ context.Context, principalID string) (Lockout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if state, ok := m.lockouts[principalID]; ok {
		return state, nil
	}
	return Lockout{PrincipalID: principalID}, nil
}

func (m *memStore) RecordFailure(_ context.Context, principalID string, threshold int, cooldown time.Duration, now time.Time) (Lockout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.lockouts[principalID]
	state.PrincipalID = principalID
	state.FailedAttempts++
	state.UpdatedAt = now
	if state.FailedAttempts >= threshold {
		until := now.Add(cooldown)
		state.LockedUntil = &until
	}
	m.lockouts[principalID] = state
	return state, nil
}

func (m *memStore) ClearLockout(_ context.Context, principalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.lockouts[principalID]
	if !ok {
		return nil
	}
	state.FailedAttempts = 0
	state.LockedUntil = nil
	m.lockouts[principalID] = state
	return nil
}

// test doubles for the ambient services

type nopLogger struct{}

var _ core.Logger = (*nopLogger)(nil)

func (nopLogger) Enable(bool)                        {}
func (nopLogger) Debug(string, ...interface{})       {}
func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

type recordingEmailService struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*recordingEmailService)(nil)

func (svc *recordingEmailService) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		svc.sent = append(svc.sent, *msg)
	}
}

func (svc *recordingEmailService) count() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.sent)
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "Darasa",
		SecretKey: []byte("test-secret"),
		Auth: core.AuthConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			LockoutThreshold:          3,
			LockoutCooldown:           30 * time.Minute,
		},
	}
}
