package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/auth"
	"github.com/darasahub/darasa/core/principal"
	inmemdb "github.com/darasahub/darasa/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                        {}
func (nopLogger) Debug(string, ...interface{})       {}
func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

func guardFixtures(t *testing.T, conf *core.Config) (*auth.Codec, *auth.Guard, *principal.LockoutTracker) {
	t.Helper()
	db := inmemdb.Open()
	stores := inmemdb.Stores(db)
	tracker := principal.NewLockoutTracker(inmemdb.NewLockoutRepository(db), conf.Auth.LockoutThreshold, conf.Auth.LockoutCooldown)
	ctx := context.Background()

	_, _ = stores.Staff.CreateStaff(ctx, principal.Staff{ID: "s1", Name: "Amina", Role: principal.RoleTeacher, TenantID: "school-a", IsActive: true})
	_, _ = stores.Staff.CreateStaff(ctx, principal.Staff{ID: "s2", Name: "Idle", Role: principal.RoleTeacher, IsActive: false})
	_, _ = stores.Learners.CreateLearner(ctx, principal.Learner{ID: "l1", Name: "Ben", TenantID: "school-a", IsActive: true})

	codec := auth.NewCodec(conf)
	guard := auth.NewGuard(codec, principal.NewResolver(stores, tracker), nopLogger{})
	return codec, guard, tracker
}

func guardConf(expiration time.Duration) *core.Config {
	return &core.Config{
		AppName:   "Darasa",
		SecretKey: []byte("test-secret"),
		Auth: core.AuthConfig{
			JWTExpirationDelta:        expiration,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			LockoutThreshold:          2,
			LockoutCooldown:           30 * time.Minute,
		},
	}
}

func TestGuard_Authenticate(t *testing.T) {
	conf := guardConf(time.Hour)
	codec, guard, tracker := guardFixtures(t, conf)
	ctx := context.Background()

	valid, _ := codec.Issue(principal.Principal{ID: "s1", Role: principal.RoleTeacher, TenantID: "school-a"})
	inactive, _ := codec.Issue(principal.Principal{ID: "s2", Role: principal.RoleTeacher})
	ghost, _ := codec.Issue(principal.Principal{ID: "nope", Role: principal.RoleTeacher})
	expired, _ := auth.NewCodec(guardConf(-time.Hour)).Issue(principal.Principal{ID: "s1", Role: principal.RoleTeacher})

	// lock the learner
	locked, _ := codec.Issue(principal.Principal{ID: "l1", Role: principal.RoleStudent})
	_, _, _ = tracker.RecordFailure(ctx, "l1")
	_, _, _ = tracker.RecordFailure(ctx, "l1")

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid", token: valid},
		{name: "empty", token: "", wantErr: auth.ErrMissingCredential},
		{name: "garbage", token: "lol", wantErr: auth.ErrMalformedCredential},
		{name: "expired", token: expired, wantErr: auth.ErrExpiredCredential},
		{name: "unknown principal", token: ghost, wantErr: principal.ErrNotFound},
		{name: "deactivated", token: inactive, wantErr: principal.ErrDeactivated},
		{name: "locked", token: locked, wantErr: principal.ErrLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := guard.Authenticate(ctx, tt.token)
			if err != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && p.ID != "s1" {
				t.Errorf("ID = %s, want s1", p.ID)
			}
		})
	}
}

// a credential issued while the account was in good standing is rejected as
// soon as the account is deactivated; revocation needs no token state.
func TestGuard_midSessionDeactivation(t *testing.T) {
	conf := guardConf(time.Hour)
	db := inmemdb.Open()
	stores := inmemdb.Stores(db)
	tracker := principal.NewLockoutTracker(inmemdb.NewLockoutRepository(db), 2, 30*time.Minute)
	ctx := context.Background()

	s, _ := stores.Staff.CreateStaff(ctx, principal.Staff{ID: "s1", Role: principal.RoleTeacher, IsActive: true})

	codec := auth.NewCodec(conf)
	guard := auth.NewGuard(codec, principal.NewResolver(stores, tracker), nopLogger{})

	token, _ := codec.Issue(s.Principal())
	if _, err := guard.Authenticate(ctx, token); err != nil {
		t.Fatalf("Authenticate() failed, %v", err)
	}

	s.IsActive = false
	_, _ = stores.Staff.UpdateStaff(ctx, s)

	if _, err := guard.Authenticate(ctx, token); err != principal.ErrDeactivated {
		t.Errorf("Authenticate() error = %v, want %v", err, principal.ErrDeactivated)
	}
}

func TestGuard_Authorize(t *testing.T) {
	conf := guardConf(time.Hour)
	_, guard, _ := guardFixtures(t, conf)

	p := principal.Principal{ID: "s1", Role: principal.RoleTeacher}

	if err := guard.Authorize(p); err != nil {
		t.Errorf("Authorize() with empty role set = %v, want nil", err)
	}
	if err := guard.Authorize(p, principal.RoleTeacher, principal.RoleAdmin); err != nil {
		t.Errorf("Authorize() = %v, want nil", err)
	}

	err := guard.Authorize(p, principal.RoleAdmin)
	roleErr, ok := err.(*auth.RoleError)
	if !ok {
		t.Fatalf("Authorize() error = %T, want *auth.RoleError", err)
	}
	if roleErr.Actual != principal.RoleTeacher || len(roleErr.Required) != 1 {
		t.Errorf("RoleError = %+v, want actual teacher, required [admin]", roleErr)
	}
}

func TestGuard_Refresh(t *testing.T) {
	conf := guardConf(time.Hour)
	codec, guard, _ := guardFixtures(t, conf)
	ctx := context.Background()

	token, _ := codec.Issue(principal.Principal{ID: "s1", Role: principal.RoleTeacher, TenantID: "school-a"})

	refreshed, err := guard.Refresh(ctx, token, conf.Auth.JWTRefreshExpirationDelta)
	if err != nil {
		t.Fatalf("Refresh() failed, %v", err)
	}
	claims, err := codec.Verify(refreshed)
	if err != nil {
		t.Fatalf("Verify(refreshed) failed, %v", err)
	}
	orig, _ := codec.Verify(token)
	if claims.OrigIssuedAt != orig.OrigIssuedAt {
		t.Error("refresh did not preserve the original issue time")
	}

	// outside the refresh window
	if _, err = guard.Refresh(ctx, token, -time.Hour); err != auth.ErrExpiredCredential {
		t.Errorf("Refresh() error = %v, want %v", err, auth.ErrExpiredCredential)
	}
}
