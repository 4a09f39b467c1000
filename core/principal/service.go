package principal

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core"
)

// ErrInvalidCredentials covers both an unknown login name and a wrong
// password, so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service owns login: locating the account, consulting and updating the
// lockout tracker, and checking the password. Credential issuance is the
// codec's job; this service only yields the authenticated principal.
type Service struct {
	stores   Stores
	lockouts *LockoutTracker
	mailSvc  core.EmailService
	conf     *core.Config
	logger   core.Logger
}

func NewService(stores Stores, lockouts *LockoutTracker, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		stores:   stores,
		lockouts: lockouts,
		mailSvc:  mailSvc,
		conf:     conf,
		logger:   logger,
	}
}

func (svc *Service) Stores() Stores            { return svc.stores }
func (svc *Service) Lockouts() *LockoutTracker { return svc.lockouts }

// loginRecord is the store-independent view Authenticate works against.
type loginRecord struct {
	principal    Principal
	passwordHash []byte
	setLastLogin func(ctx context.Context, t time.Time) error
}

// Authenticate checks uname/pwd against the store the optional role pins.
// Lock state is consulted before the password so a locked account rejects
// even a correct password; failures feed the tracker, success clears it.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd, role string) (Principal, error) {
	rec, err := svc.findForLogin(ctx, core.CleanString(uname, true /* lower */), role)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, errors.Wrap(err, "finding principal for login")
	}
	p := rec.principal

	locked, err := svc.lockouts.IsLocked(ctx, p.ID)
	if err != nil {
		return Principal{}, errors.Wrap(err, "checking lockout state")
	}
	if locked {
		return Principal{}, ErrLocked
	}

	if err = checkPassword(rec.passwordHash, pwd); err != nil {
		state, justLocked, lkErr := svc.lockouts.RecordFailure(ctx, p.ID)
		if lkErr != nil {
			return Principal{}, errors.Wrap(lkErr, "recording failed attempt")
		}
		if justLocked {
			svc.notifyLocked(p, state)
		}
		return Principal{}, ErrInvalidCredentials
	}

	if !p.IsActive {
		return Principal{}, ErrDeactivated
	}

	if err = svc.lockouts.RecordSuccess(ctx, p.ID); err != nil {
		return Principal{}, errors.Wrap(err, "clearing lockout state")
	}
	if err = rec.setLastLogin(ctx, nowFunc().UTC()); err != nil {
		return Principal{}, errors.Wrap(err, "setting lastLogin")
	}
	return p, nil
}

// findForLogin pins the store by role when one is supplied. Without a role
// the staff store is tried first, then the learner store; guardians must
// always name their role, mirroring identity resolution.
func (svc *Service) findForLogin(ctx context.Context, uname, role string) (loginRecord, error) {
	switch {
	case role == RoleStudent:
		l, err := svc.stores.Learners.GetLearnerByUsernameOrEmail(ctx, uname)
		if err != nil {
			return loginRecord{}, err
		}
		if l.DeletedAt != nil {
			return loginRecord{}, ErrNotFound
		}
		return svc.learnerRecord(l), nil

	case role == RoleParent:
		g, err := svc.stores.Guardians.GetGuardianByUsernameOrEmail(ctx, uname)
		if err != nil {
			return loginRecord{}, err
		}
		if g.DeletedAt != nil {
			return loginRecord{}, ErrNotFound
		}
		return svc.guardianRecord(g), nil

	case IsStaffRole(role), role == "":
		s, err := svc.stores.Staff.GetStaffByUsernameOrEmail(ctx, uname)
		if err == nil {
			if s.DeletedAt != nil || (role != "" && s.Role != role) {
				return loginRecord{}, ErrNotFound
			}
			return svc.staffRecord(s), nil
		}
		if errors.Cause(err) != ErrNotFound || role != "" {
			return loginRecord{}, err
		}
		l, err := svc.stores.Learners.GetLearnerByUsernameOrEmail(ctx, uname)
		if err != nil {
			return loginRecord{}, err
		}
		if l.DeletedAt != nil {
			return loginRecord{}, ErrNotFound
		}
		return svc.learnerRecord(l), nil

	default:
		return loginRecord{}, ErrNotFound
	}
}

func (svc *Service) staffRecord(s Staff) loginRecord {
	return loginRecord{
		principal:    s.Principal(),
		passwordHash: s.PasswordHash,
		setLastLogin: func(ctx context.Context, t time.Time) error {
			return svc.stores.Staff.SetStaffLastLogin(ctx, s.ID, t)
		},
	}
}

func (svc *Service) learnerRecord(l Learner) loginRecord {
	p := l.Principal()
	p.Role = RoleStudent
	return loginRecord{
		principal:    p,
		passwordHash: l.PasswordHash,
		setLastLogin: func(ctx context.Context, t time.Time) error {
			return svc.stores.Learners.SetLearnerLastLogin(ctx, l.ID, t)
		},
	}
}

func (svc *Service) guardianRecord(g Guardian) loginRecord {
	p := g.Principal()
	p.Role = RoleParent
	return loginRecord{
		principal:    p,
		passwordHash: g.PasswordHash,
		setLastLogin: func(ctx context.Context, t time.Time) error {
			return svc.stores.Guardians.SetGuardianLastLogin(ctx, g.ID, t)
		},
	}
}

// notifyLocked emails the account holder once per lock. Fire-and-forget.
func (svc *Service) notifyLocked(p Principal, state Lockout) {
	svc.logger.Warn(fmt.Sprintf("account %s locked after %d failed attempts", p.ID, state.FailedAttempts))
	if p.Email == "" {
		return
	}
	until := "later"
	if state.LockedUntil != nil {
		until = state.LockedUntil.UTC().Format(time.RFC1123)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: p.Name, Address: p.Email}},
		Subject: "Your account has been temporarily locked",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour account was locked after too many failed sign-in attempts. "+
				"You can try again %s, or reset your password.\n", p.Name, until),
	})
}

// Registration passthroughs used by the admin CLI and server bootstrap.

func (svc *Service) CreateStaff(ctx context.Context, s Staff, pwd string) (Staff, error) {
	now := nowFunc().UTC()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.Username = core.CleanString(s.Username, true /* lower */)
	s.Email = core.CleanString(s.Email, true /* lower */)
	s.IsActive = true
	s.CreatedAt, s.UpdatedAt = now, now
	if err := CheckPasswordStrength(pwd, s.Name, s.Username, s.Email); err != nil {
		return Staff{}, err
	}
	if err := s.SetPassword(pwd); err != nil {
		return Staff{}, err
	}
	return svc.stores.Staff.CreateStaff(ctx, s)
}

func (svc *Service) CreateLearner(ctx context.Context, l Learner, pwd string) (Learner, error) {
	now := nowFunc().UTC()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.Username = core.CleanString(l.Username, true /* lower */)
	l.Email = core.CleanString(l.Email, true /* lower */)
	l.Role = RoleStudent
	l.IsActive = true
	l.CreatedAt, l.UpdatedAt = now, now
	if err := CheckPasswordStrength(pwd, l.Name, l.Username, l.Email); err != nil {
		return Learner{}, err
	}
	if err := l.SetPassword(pwd); err != nil {
		return Learner{}, err
	}
	return svc.stores.Learners.CreateLearner(ctx, l)
}

func (svc *Service) CreateGuardian(ctx context.Context, g Guardian, pwd string) (Guardian, error) {
	now := nowFunc().UTC()
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	g.Username = core.CleanString(g.Username, true /* lower */)
	g.Email = core.CleanString(g.Email, true /* lower */)
	g.Role = RoleParent
	g.IsActive = true
	g.CreatedAt, g.UpdatedAt = now, now
	if err := CheckPasswordStrength(pwd, g.Name, g.Username, g.Email); err != nil {
		return Guardian{}, err
	}
	if err := g.SetPassword(pwd); err != nil {
		return Guardian{}, err
	}
	return svc.stores.Guardians.CreateGuardian(ctx, g)
}
