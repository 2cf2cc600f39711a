package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// createTestAuthorization creates an unaudited, seeded authorizer for testing
func createTestAuthorization(t *testing.T) IAuthorization {
	t.Helper()

	auth, err := New(context.Background(), Config{EnableAudit: false})
	if err != nil {
		t.Fatalf("failed to create authorization: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil)
		if err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("loads model from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.conf")
		if err := os.WriteFile(path, []byte(DefaultModel), 0o644); err != nil {
			t.Fatalf("failed to write model file: %v", err)
		}
		e, err := NewEnforcer(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := NewAuthorization(e); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("rejects missing model file", func(t *testing.T) {
		if _, err := NewEnforcer(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
			t.Error("Expected error for missing model file")
		}
	})
}

func TestDefaultPolicies(t *testing.T) {
	auth := createTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		role     Role
		resource Resource
		action   Action
		want     bool
	}{
		{"customer books", RoleCustomer, ResourceAppointment, ActionCreate, true},
		{"customer lists own", RoleCustomer, ResourceAppointment, ActionList, true},
		{"customer reads pet records", RoleCustomer, ResourceMedicalRecord, ActionRead, true},
		{"customer cannot write records", RoleCustomer, ResourceMedicalRecord, ActionCreate, false},
		{"customer cannot reach admin list", RoleCustomer, ResourceAppointmentAdmin, ActionList, false},
		{"customer cannot stream notifications", RoleCustomer, ResourceNotification, ActionRead, false},
		{"staff manage covers delete", RoleStaff, ResourceAppointmentAdmin, ActionDelete, true},
		{"staff writes records", RoleStaff, ResourceMedicalRecord, ActionCreate, true},
		{"staff sends reminders", RoleStaff, ResourceReminder, ActionExecute, true},
		{"staff cannot manage accounts", RoleStaff, ResourceStaffAccount, ActionCreate, false},
		{"staff cannot book as customer", RoleStaff, ResourceAppointment, ActionCreate, false},
		{"admin inherits staff", RoleAdmin, ResourceAppointmentAdmin, ActionUpdate, true},
		{"admin inherits notifications", RoleAdmin, ResourceNotification, ActionRead, true},
		{"admin manages accounts", RoleAdmin, ResourceStaffAccount, ActionCreate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.role, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforceRejectsUnknownArguments(t *testing.T) {
	auth := createTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		role     Role
		resource Resource
		action   Action
	}{
		{"empty role", "", ResourceAppointment, ActionRead},
		{"unknown resource", RoleStaff, Resource("unknown"), ActionRead},
		{"unknown action", RoleStaff, ResourceAppointment, Action("unknown")},
		{"empty action", RoleStaff, ResourceAppointment, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Enforce(ctx, tt.role, tt.resource, tt.action)
			if !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("Expected ErrInvalidArgs, got %v", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := createTestAuthorization(t)
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, RoleStaff, ResourceExport, ActionExecute); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := auth.MustEnforce(ctx, RoleCustomer, ResourceExport, ActionExecute); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestDenyOverridesAllow(t *testing.T) {
	auth := createTestAuthorization(t)
	ctx := context.Background()

	if _, err := auth.AddPermission(ctx, RoleAdmin, ResourceExport, ActionExecute, EffectDeny); err != nil {
		t.Fatalf("Failed to add permission: %v", err)
	}
	ok, err := auth.Enforce(ctx, RoleAdmin, ResourceExport, ActionExecute)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Error("Expected deny rule to win over inherited allow")
	}

	if _, err := auth.RemovePermission(ctx, RoleAdmin, ResourceExport, ActionExecute, EffectDeny); err != nil {
		t.Fatalf("Failed to remove permission: %v", err)
	}
	if ok, _ := auth.Enforce(ctx, RoleAdmin, ResourceExport, ActionExecute); !ok {
		t.Error("Expected allow after removing deny rule")
	}
}

func TestAddPermissionValidation(t *testing.T) {
	auth := createTestAuthorization(t)
	ctx := context.Background()

	if _, err := auth.AddPermission(ctx, Role("role:vet"), ResourcePet, ActionRead, EffectAllow); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("Expected ErrInvalidArgs for unknown role, got %v", err)
	}
	if _, err := auth.AddPermission(ctx, RoleStaff, ResourcePet, ActionRead, PolicyEffect("maybe")); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("Expected ErrInvalidArgs for bad effect, got %v", err)
	}
	if _, err := auth.AddInheritance(ctx, RoleStaff, RoleStaff); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("Expected ErrInvalidArgs for self inheritance, got %v", err)
	}
}

func TestRoleFor(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"customer", RoleCustomer, false},
		{"staff", RoleStaff, false},
		{"admin", RoleAdmin, false},
		{"vet", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := RoleFor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("RoleFor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("RoleFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
