package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the clinic's baseline RBAC table. Admin inherits
// everything staff may do.
func DefaultPolicies() ([]PermissionPolicy, []GroupingPolicy) {
	perms := []PermissionPolicy{
		// Customers: own bookings, own pets and their records
		{RoleCustomer, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleCustomer, ResourceAppointment, ActionRead, EffectAllow},
		{RoleCustomer, ResourceAppointment, ActionList, EffectAllow},
		{RoleCustomer, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleCustomer, ResourcePet, ActionList, EffectAllow},
		{RoleCustomer, ResourcePet, ActionRead, EffectAllow},
		{RoleCustomer, ResourceMedicalRecord, ActionRead, EffectAllow},
		{RoleCustomer, ResourceCatalog, ActionRead, EffectAllow},

		// Staff: front desk and clinical work
		{RoleStaff, ResourceAppointment, ActionRead, EffectAllow},
		{RoleStaff, ResourceAppointmentAdmin, ActionManage, EffectAllow},
		{RoleStaff, ResourcePet, ActionRead, EffectAllow},
		{RoleStaff, ResourceMedicalRecord, ActionManage, EffectAllow},
		{RoleStaff, ResourceInventory, ActionRead, EffectAllow},
		{RoleStaff, ResourceCatalog, ActionRead, EffectAllow},
		{RoleStaff, ResourceNotification, ActionRead, EffectAllow},
		{RoleStaff, ResourceReminder, ActionExecute, EffectAllow},
		{RoleStaff, ResourceExport, ActionExecute, EffectAllow},

		// Admin: account management on top of staff
		{RoleAdmin, ResourceStaffAccount, ActionManage, EffectAllow},
	}
	groups := []GroupingPolicy{
		{Child: RoleAdmin, Parent: RoleStaff},
	}
	return perms, groups
}

// SeedDefaultPolicies loads DefaultPolicies into auth.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()
	perms, groups := DefaultPolicies()

	for _, p := range perms {
		added, err := auth.AddPermission(ctx, p.Subject, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}
	for _, g := range groups {
		if _, err := auth.AddInheritance(ctx, g.Child, g.Parent); err != nil {
			logger.Error("failed to add role inheritance", "child", g.Child, "parent", g.Parent, "error", err)
			return err
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(perms), "inheritance", len(groups))
	return nil
}
