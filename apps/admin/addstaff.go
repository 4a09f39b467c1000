package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
)

// addStaff updates or creates a staff account.
func (cli *commandLine) addStaff(name, uname, email, role, tenant, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	if !principal.IsStaffRole(role) {
		return fmt.Errorf("%q is not a staff role", role)
	}

	stores := cli.svc.Stores()
	s, err := stores.Staff.GetStaffByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != principal.ErrNotFound {
			return err
		}
		_, err = cli.svc.CreateStaff(ctx, principal.Staff{
			Name:     name,
			Username: uname,
			Email:    email,
			Role:     role,
			TenantID: tenant,
		}, pwd)
		return err
	}

	if name != "" {
		s.Name = name
	}
	if tenant != "" {
		s.TenantID = tenant
	}
	s.Role = role
	s.IsActive = true
	s.DeletedAt = nil
	s.UpdatedAt = time.Now().UTC()
	if err = s.SetPassword(pwd); err != nil {
		return err
	}
	if _, err = stores.Staff.UpdateStaff(ctx, s); err != nil {
		return err
	}
	return nil
}
