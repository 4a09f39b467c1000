package principal

import (
	"context"

	"github.com/pkg/errors"
)

// Ref identifies a principal the way a verified credential carries it.
// Role is empty on legacy credentials issued before role tagging.
type Ref struct {
	ID       string
	Role     string
	TenantID string
}

// Resolver turns a credential reference into a concrete, access-checked
// principal. An id is unique only within its own store, so the role tag pins
// the store to search; a single resolution never tries the same id against
// more than one store except through the documented legacy fallback.
type Resolver struct {
	stores   Stores
	lockouts *LockoutTracker
}

func NewResolver(stores Stores, lockouts *LockoutTracker) *Resolver {
	return &Resolver{stores: stores, lockouts: lockouts}
}

// Resolve looks the reference up in the store its role tag names:
//
//   - "student": learner store only; the returned role is forced to
//     "student" to normalize pre-tagging records.
//   - "parent": guardian store only; a guardian without a stored tenant
//     borrows the tenant of its first linked learner, and is still returned
//     with tenant unset when that lookup fails.
//   - any other known role: staff store, scoped by that role.
//   - absent (legacy credential): staff store first, then learner store
//     force-tagged "student". The guardian store is deliberately never tried
//     on this path; a pre-tagging guardian-only credential fails ErrNotFound.
//
// Soft-deleted records resolve to ErrNotFound. Every branch then applies the
// same checks: ErrDeactivated when inactive, ErrLocked while a lock is live.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (Principal, error) {
	var p Principal

	switch {
	case ref.Role == RoleStudent:
		l, err := r.stores.Learners.GetLearnerByID(ctx, ref.ID)
		if err != nil {
			return Principal{}, err
		}
		if l.DeletedAt != nil {
			return Principal{}, ErrNotFound
		}
		p = l.Principal()
		p.Role = RoleStudent

	case ref.Role == RoleParent:
		g, err := r.stores.Guardians.GetGuardianByID(ctx, ref.ID)
		if err != nil {
			return Principal{}, err
		}
		if g.DeletedAt != nil {
			return Principal{}, ErrNotFound
		}
		p = g.Principal()
		p.Role = RoleParent
		if p.TenantID == "" {
			p.TenantID = r.deriveGuardianTenant(ctx, g)
		}

	case IsStaffRole(ref.Role):
		s, err := r.stores.Staff.GetStaffByIDAndRole(ctx, ref.ID, ref.Role)
		if err != nil {
			return Principal{}, err
		}
		if s.DeletedAt != nil {
			return Principal{}, ErrNotFound
		}
		p = s.Principal()

	case ref.Role == "":
		var err error
		if p, err = r.resolveLegacy(ctx, ref.ID); err != nil {
			return Principal{}, err
		}

	default:
		// unknown tag: never guess a store for it
		return Principal{}, ErrNotFound
	}

	if !p.IsActive {
		return Principal{}, ErrDeactivated
	}
	locked, err := r.lockouts.IsLocked(ctx, p.ID)
	if err != nil {
		return Principal{}, errors.Wrap(err, "checking lockout state")
	}
	if locked {
		p.Locked = true
		return Principal{}, ErrLocked
	}
	return p, nil
}

// resolveLegacy serves credentials that predate role tagging: staff first,
// then learner. Guardians cannot resolve here and must re-authenticate to
// obtain a tagged credential.
func (r *Resolver) resolveLegacy(ctx context.Context, id string) (Principal, error) {
	s, err := r.stores.Staff.GetStaffByID(ctx, id)
	if err == nil {
		if s.DeletedAt != nil {
			return Principal{}, ErrNotFound
		}
		return s.Principal(), nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Principal{}, err
	}

	l, err := r.stores.Learners.GetLearnerByID(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	if l.DeletedAt != nil {
		return Principal{}, ErrNotFound
	}
	p := l.Principal()
	p.Role = RoleStudent
	return p, nil
}

// deriveGuardianTenant follows the guardian's first linked learner and copies
// that learner's tenant. Failure is swallowed: a guardian with no resolvable
// tenant is returned with tenant unset, not rejected.
func (r *Resolver) deriveGuardianTenant(ctx context.Context, g Guardian) string {
	linked := g.LinkedLearners()
	if len(linked) == 0 {
		return ""
	}
	l, err := r.stores.Learners.GetLearnerByID(ctx, linked[0])
	if err != nil {
		return ""
	}
	return l.TenantID
}
