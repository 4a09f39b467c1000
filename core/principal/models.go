package principal

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role tags. The set is closed: the guards only ever grant access against
// these values plus the legacy RoleUser fallback.
const (
	RoleAdmin       = "admin"
	RoleSchoolAdmin = "school_admin"
	RoleTeacher     = "teacher"
	RoleLibrarian   = "librarian"
	RoleAccountant  = "accountant"
	RoleStudent     = "student"
	RoleParent      = "parent"

	// RoleUser is the fallback tag for records created before role tagging
	// became mandatory. It grants no staff scope.
	RoleUser = "user"
)

var (
	StaffRoles = []string{RoleAdmin, RoleSchoolAdmin, RoleTeacher, RoleLibrarian, RoleAccountant}
	AllRoles   = append(append(make([]string, 0, 7), StaffRoles...), RoleStudent, RoleParent)
)

// IsStaffRole reports whether role is served by the staff store.
func IsStaffRole(role string) bool {
	for _, r := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsKnownRole(role string) bool {
	return IsStaffRole(role) || role == RoleStudent || role == RoleParent
}

// Kind identifies the store a principal was resolved from.
type Kind string

const (
	KindStaff    Kind = "staff"
	KindLearner  Kind = "learner"
	KindGuardian Kind = "guardian"
)

// Principal is the normalized identity attached to a request or connection,
// whichever store it came from.
type Principal struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"` // school scope; empty for the global admin
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	IsActive bool   `json:"is_active"`
	Locked   bool   `json:"-"`

	// legacy markers, consulted only by credential issuance for records
	// predating the explicit role field
	AdmissionNo string `json:"-"`
	Relation    string `json:"-"`
}

func (p Principal) HasRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

func (p Principal) IsStaff() bool { return p.Kind == KindStaff }

// Staff is a record in the shared staff/admin store. The role field keys the
// record's authorization scope within a tenant.
type Staff struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	TenantID     string     `json:"tenant_id" db:"tenant_id"` // empty for the global admin
	IsActive     bool       `json:"is_active" db:"is_active"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time  `json:"last_login" db:"last_login"` // UTC
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

func (s Staff) Principal() Principal {
	return Principal{
		ID:       s.ID,
		Role:     s.Role,
		TenantID: s.TenantID,
		Kind:     KindStaff,
		Name:     s.Name,
		Email:    s.Email,
		IsActive: s.IsActive,
	}
}

// Learner is a record in the learner store; always tenant-scoped.
type Learner struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"` // empty on pre-tagging records
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	AdmissionNo  string     `json:"admission_no" db:"admission_no"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLogin    time.Time  `json:"last_login" db:"last_login"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

func (l Learner) Principal() Principal {
	return Principal{
		ID:          l.ID,
		Role:        l.Role,
		TenantID:    l.TenantID,
		Kind:        KindLearner,
		Name:        l.Name,
		Email:       l.Email,
		IsActive:    l.IsActive,
		AdmissionNo: l.AdmissionNo,
	}
}

// Guardian is a record in the guardian store. The linkage to learners is
// set-valued; LearnerID survives as a deprecated read alias from the time a
// guardian could be linked to a single learner only.
type Guardian struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	Relation     string     `json:"relation" db:"relation"` // father, mother, other
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	LearnerIDs   []string   `json:"learner_ids" db:"-"`
	LearnerID    string     `json:"-" db:"learner_id"` // Deprecated: read LinkedLearners instead.
	IsActive     bool       `json:"is_active" db:"is_active"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLogin    time.Time  `json:"last_login" db:"last_login"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

// LinkedLearners returns the learner linkage as a set, falling back to the
// deprecated singular alias for records never migrated to the set form.
func (g Guardian) LinkedLearners() []string {
	if len(g.LearnerIDs) > 0 {
		return g.LearnerIDs
	}
	if g.LearnerID != "" {
		return []string{g.LearnerID}
	}
	return nil
}

func (g Guardian) Principal() Principal {
	return Principal{
		ID:       g.ID,
		Role:     g.Role,
		TenantID: g.TenantID,
		Kind:     KindGuardian,
		Name:     g.Name,
		Email:    g.Email,
		IsActive: g.IsActive,
		Relation: g.Relation,
	}
}

// Password helpers shared by the three record types.

func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

func checkPassword(hash []byte, pwd string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd))
}

func (s *Staff) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s Staff) CheckPassword(pwd string) error { return checkPassword(s.PasswordHash, pwd) }

func (l *Learner) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	l.PasswordHash = hash
	return nil
}

func (l Learner) CheckPassword(pwd string) error { return checkPassword(l.PasswordHash, pwd) }

func (g *Guardian) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	g.PasswordHash = hash
	return nil
}

func (g Guardian) CheckPassword(pwd string) error { return checkPassword(g.PasswordHash, pwd) }
