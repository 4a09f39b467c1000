package auth

import (
	"testing"
	"time"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
)

func testCodec(expiration time.Duration) *Codec {
	return NewCodec(&core.Config{
		AppName:   "Darasa",
		SecretKey: []byte("test-secret"),
		Auth:      core.AuthConfig{JWTExpirationDelta: expiration},
	})
}

func TestCodec_roundTrip(t *testing.T) {
	codec := testCodec(time.Hour)
	p := principal.Principal{ID: "p1", Role: principal.RoleTeacher, TenantID: "school-a", Kind: principal.KindStaff}

	token, err := codec.Issue(p)
	if err != nil {
		t.Fatalf("Issue() failed, %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify() failed, %v", err)
	}

	if claims.Subject != "p1" {
		t.Errorf("Subject = %s, want p1", claims.Subject)
	}
	if claims.Role != principal.RoleTeacher {
		t.Errorf("Role = %s, want %s", claims.Role, principal.RoleTeacher)
	}
	if claims.TenantID != "school-a" {
		t.Errorf("TenantID = %s, want school-a", claims.TenantID)
	}
	if ref := claims.Ref(); ref.ID != "p1" || ref.Role != principal.RoleTeacher {
		t.Errorf("Ref() = %+v, want id/role carried over", ref)
	}
}

// credentials are immutable once issued: two issuances for the same
// principal differ only in their timestamps.
func TestCodec_issuanceDiffersOnlyInTimestamps(t *testing.T) {
	defer func() { nowFunc = time.Now }()
	now := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }

	codec := testCodec(time.Hour)
	p := principal.Principal{ID: "p1", Role: principal.RoleTeacher, TenantID: "school-a"}

	first := codec.ClaimsFor(p)
	now = now.Add(time.Minute)
	second := codec.ClaimsFor(p)

	if first.Subject != second.Subject || first.Role != second.Role || first.TenantID != second.TenantID {
		t.Error("payload fields differ across issuances")
	}
	if first.IssuedAt == second.IssuedAt || first.ExpiresAt == second.ExpiresAt {
		t.Error("timestamps did not advance across issuances")
	}
}

func TestCodec_Verify_failures(t *testing.T) {
	codec := testCodec(time.Hour)
	p := principal.Principal{ID: "p1", Role: principal.RoleTeacher}

	expired, err := testCodec(-time.Hour).Issue(p)
	if err != nil {
		t.Fatalf("Issue() failed, %v", err)
	}
	foreign, err := NewCodec(&core.Config{
		AppName:   "Darasa",
		SecretKey: []byte("other-secret"),
		Auth:      core.AuthConfig{JWTExpirationDelta: time.Hour},
	}).Issue(p)
	if err != nil {
		t.Fatalf("Issue() failed, %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "lol", wantErr: ErrMalformedCredential},
		{name: "expired", token: expired, wantErr: ErrExpiredCredential},
		{name: "wrong key", token: foreign, wantErr: ErrInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Verify(tt.token); err != tt.wantErr {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCodec_inferRole(t *testing.T) {
	tests := []struct {
		name string
		p    principal.Principal
		want string
	}{
		{name: "learner kind", p: principal.Principal{Kind: principal.KindLearner}, want: principal.RoleStudent},
		{name: "guardian kind", p: principal.Principal{Kind: principal.KindGuardian}, want: principal.RoleParent},
		{name: "admission number marker", p: principal.Principal{AdmissionNo: "ADM-1"}, want: principal.RoleStudent},
		{name: "relation marker", p: principal.Principal{Relation: "mother"}, want: principal.RoleParent},
		{name: "no markers", p: principal.Principal{}, want: principal.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferRole(tt.p); got != tt.want {
				t.Errorf("inferRole() = %s, want %s", got, tt.want)
			}
		})
	}
}

// a tagged record never consults the legacy markers
func TestCodec_explicitRoleWins(t *testing.T) {
	codec := testCodec(time.Hour)
	p := principal.Principal{ID: "p1", Role: principal.RoleTeacher, AdmissionNo: "ADM-1"}

	claims := codec.ClaimsFor(p)
	if claims.Role != principal.RoleTeacher {
		t.Errorf("Role = %s, want %s", claims.Role, principal.RoleTeacher)
	}
}
