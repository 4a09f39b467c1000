package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
)

// resetPassword finds the account the optional role tag pins and sets a new
// password. A successful reset also clears any lockout state, so a locked-out
// holder regains access immediately.
func (cli *commandLine) resetPassword(uname, role, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	switch {
	case role == principal.RoleStudent:
		return cli.resetLearnerPassword(ctx, uname, pwd)
	case role == principal.RoleParent:
		return cli.resetGuardianPassword(ctx, uname, pwd)
	case principal.IsStaffRole(role):
		return cli.resetStaffPassword(ctx, uname, pwd)
	}

	// no role: staff first, then learner, then guardian
	if err := cli.resetStaffPassword(ctx, uname, pwd); errors.Cause(err) != principal.ErrNotFound {
		return err
	}
	if err := cli.resetLearnerPassword(ctx, uname, pwd); errors.Cause(err) != principal.ErrNotFound {
		return err
	}
	return cli.resetGuardianPassword(ctx, uname, pwd)
}

func (cli *commandLine) resetStaffPassword(ctx context.Context, uname, pwd string) error {
	stores := cli.svc.Stores()
	s, err := stores.Staff.GetStaffByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err = s.SetPassword(pwd); err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()
	if _, err = stores.Staff.UpdateStaff(ctx, s); err != nil {
		return err
	}
	return cli.svc.Lockouts().RecordSuccess(ctx, s.ID)
}

func (cli *commandLine) resetLearnerPassword(ctx context.Context, uname, pwd string) error {
	stores := cli.svc.Stores()
	l, err := stores.Learners.GetLearnerByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err = l.SetPassword(pwd); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	if _, err = stores.Learners.UpdateLearner(ctx, l); err != nil {
		return err
	}
	return cli.svc.Lockouts().RecordSuccess(ctx, l.ID)
}

func (cli *commandLine) resetGuardianPassword(ctx context.Context, uname, pwd string) error {
	stores := cli.svc.Stores()
	g, err := stores.Guardians.GetGuardianByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err = g.SetPassword(pwd); err != nil {
		return err
	}
	g.UpdatedAt = time.Now().UTC()
	if _, err = stores.Guardians.UpdateGuardian(ctx, g); err != nil {
		return err
	}
	return cli.svc.Lockouts().RecordSuccess(ctx, g.ID)
}
