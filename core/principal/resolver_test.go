package principal

import (
	"context"
	"testing"
	"time"
)

func resolverFixtures(t *testing.T) (*memStore, *Resolver) {
	t.Helper()
	store := newMemStore()
	tracker := NewLockoutTracker(store, 3, 30*time.Minute)
	ctx := context.Background()

	_, _ = store.CreateStaff(ctx, Staff{
		ID: "id-1", Name: "Amina", Username: "amina", Role: RoleTeacher,
		TenantID: "school-a", IsActive: true,
	})
	// same id in the learner store: ids are unique per store only
	_, _ = store.CreateLearner(ctx, Learner{
		ID: "id-1", Name: "Ben", Username: "ben", TenantID: "school-b",
		AdmissionNo: "ADM-7", IsActive: true,
	})
	_, _ = store.CreateLearner(ctx, Learner{
		ID: "lrn-2", Name: "Cleo", Username: "cleo", TenantID: "school-c", IsActive: true,
	})
	_, _ = store.CreateGuardian(ctx, Guardian{
		ID: "grd-1", Name: "Dara", Username: "dara", Relation: "mother",
		LearnerIDs: []string{"lrn-2"}, IsActive: true,
	})
	_, _ = store.CreateGuardian(ctx, Guardian{
		ID: "grd-2", Name: "Eli", Username: "eli", Relation: "father", IsActive: true,
	})
	return store, NewResolver(store.stores(), tracker)
}

func TestResolver_roleTagPinsStore(t *testing.T) {
	_, resolver := resolverFixtures(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		ref      Ref
		wantKind Kind
		wantRole string
		wantErr  error
	}{
		{name: "staff role hits staff store", ref: Ref{ID: "id-1", Role: RoleTeacher}, wantKind: KindStaff, wantRole: RoleTeacher},
		{name: "student tag hits learner store for the same id", ref: Ref{ID: "id-1", Role: RoleStudent}, wantKind: KindLearner, wantRole: RoleStudent},
		{name: "parent tag hits guardian store", ref: Ref{ID: "grd-1", Role: RoleParent}, wantKind: KindGuardian, wantRole: RoleParent},
		{name: "staff role scoped: wrong role misses", ref: Ref{ID: "id-1", Role: RoleAccountant}, wantErr: ErrNotFound},
		{name: "unknown tag never guesses a store", ref: Ref{ID: "id-1", Role: "superuser"}, wantErr: ErrNotFound},
		{name: "student tag does not reach staff store", ref: Ref{ID: "grd-1", Role: RoleStudent}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := resolver.Resolve(ctx, tt.ref)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() failed, %v", err)
			}
			if p.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", p.Kind, tt.wantKind)
			}
			if p.Role != tt.wantRole {
				t.Errorf("Role = %s, want %s", p.Role, tt.wantRole)
			}
		})
	}
}

func TestResolver_legacyFallback(t *testing.T) {
	_, resolver := resolverFixtures(t)
	ctx := context.Background()

	// staff wins the tie for a shared id
	p, err := resolver.Resolve(ctx, Ref{ID: "id-1"})
	if err != nil {
		t.Fatalf("Resolve() failed, %v", err)
	}
	if p.Kind != KindStaff {
		t.Errorf("Kind = %s, want %s (staff wins ties deterministically)", p.Kind, KindStaff)
	}

	// learner-only id falls through and gets force-tagged
	p, err = resolver.Resolve(ctx, Ref{ID: "lrn-2"})
	if err != nil {
		t.Fatalf("Resolve() failed, %v", err)
	}
	if p.Kind != KindLearner || p.Role != RoleStudent {
		t.Errorf("got kind=%s role=%s, want learner force-tagged student", p.Kind, p.Role)
	}

	// a guardian-only legacy credential must NOT resolve
	if _, err = resolver.Resolve(ctx, Ref{ID: "grd-1"}); err != ErrNotFound {
		t.Errorf("Resolve(guardian legacy) error = %v, want %v", err, ErrNotFound)
	}
}

func TestResolver_guardianTenantDerivation(t *testing.T) {
	_, resolver := resolverFixtures(t)
	ctx := context.Background()

	// tenant borrowed from the first linked learner
	p, err := resolver.Resolve(ctx, Ref{ID: "grd-1", Role: RoleParent})
	if err != nil {
		t.Fatalf("Resolve() failed, %v", err)
	}
	if p.TenantID != "school-c" {
		t.Errorf("TenantID = %q, want %q (derived from linked learner)", p.TenantID, "school-c")
	}

	// no linked learner: resolution still succeeds, tenant stays unset
	p, err = resolver.Resolve(ctx, Ref{ID: "grd-2", Role: RoleParent})
	if err != nil {
		t.Fatalf("Resolve() failed, %v", err)
	}
	if p.TenantID != "" {
		t.Errorf("TenantID = %q, want empty", p.TenantID)
	}
}

func TestResolver_storedGuardianTenantWins(t *testing.T) {
	store, resolver := resolverFixtures(t)
	ctx := context.Background()

	g, _ := store.GetGuardianByID(ctx, "grd-1")
	g.TenantID = "school-x"
	_, _ = store.UpdateGuardian(ctx, g)

	p, err := resolver.Resolve(ctx, Ref{ID: "grd-1", Role: RoleParent})
	if err != nil {
		t.Fatalf("Resolve() failed, %v", err)
	}
	if p.TenantID != "school-x" {
		t.Errorf("TenantID = %q, want stored value %q", p.TenantID, "school-x")
	}
}

func TestResolver_accessChecks(t *testing.T) {
	store := newMemStore()
	tracker := NewLockoutTracker(store, 2, 30*time.Minute)
	resolver := NewResolver(store.stores(), tracker)
	ctx := context.Background()

	now := time.Now().UTC()
	_, _ = store.CreateStaff(ctx, Staff{ID: "s1", Role: RoleAdmin, IsActive: true})
	_, _ = store.CreateStaff(ctx, Staff{ID: "s2", Role: RoleAdmin, IsActive: false})
	_, _ = store.CreateStaff(ctx, Staff{ID: "s3", Role: RoleAdmin, IsActive: true, DeletedAt: &now})

	// locked via the tracker
	_, _, _ = tracker.RecordFailure(ctx, "s1")
	_, _, _ = tracker.RecordFailure(ctx, "s1")

	tests := []struct {
		name    string
		ref     Ref
		wantErr error
	}{
		{name: "locked account rejected", ref: Ref{ID: "s1", Role: RoleAdmin}, wantErr: ErrLocked},
		{name: "deactivated account rejected", ref: Ref{ID: "s2", Role: RoleAdmin}, wantErr: ErrDeactivated},
		{name: "soft-deleted resolves as missing", ref: Ref{ID: "s3", Role: RoleAdmin}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolver.Resolve(ctx, tt.ref); err != tt.wantErr {
				t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
