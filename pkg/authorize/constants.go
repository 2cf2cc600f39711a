package authorize

import "fmt"

type Action string
type Resource string
type Role string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Power actions
	ActionManage  Action = "manage"  // every action on the resource
	ActionExecute Action = "execute" // send, export, trigger
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionExecute: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Customer self-service
	ResourceAppointment Resource = "appointment"
	ResourcePet         Resource = "pet"

	// Front desk
	ResourceAppointmentAdmin Resource = "appointment_admin"
	ResourceReminder         Resource = "reminder"
	ResourceExport           Resource = "export"
	ResourceNotification     Resource = "notification"

	// Clinical
	ResourceMedicalRecord Resource = "medical_record"
	ResourceInventory     Resource = "inventory"

	// Public catalog
	ResourceCatalog Resource = "catalog"

	// Accounts
	ResourceStaffAccount Resource = "staff_account"
)

var KnownResources = map[Resource]struct{}{
	ResourceAppointment: {}, ResourcePet: {},
	ResourceAppointmentAdmin: {}, ResourceReminder: {}, ResourceExport: {}, ResourceNotification: {},
	ResourceMedicalRecord: {}, ResourceInventory: {},
	ResourceCatalog: {},
	ResourceStaffAccount: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects. Users carry a flat role string which maps 1:1 onto these.

const (
	WildcardRole Role = "*"

	RoleCustomer Role = "role:customer"
	RoleStaff    Role = "role:staff"
	RoleAdmin    Role = "role:admin"
)

var KnownRoles = map[Role]struct{}{
	RoleCustomer: {},
	RoleStaff:    {},
	RoleAdmin:    {},
}

// RoleFor maps a user's role column ("customer", "staff", "admin") to its
// policy subject.
func RoleFor(userRole string) (Role, error) {
	r := Role("role:" + userRole)
	if _, ok := KnownRoles[r]; !ok {
		return "", fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, userRole)
	}
	return r, nil
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Role inheritance rows: g, child, parent
type GroupingPolicy struct {
	Child  Role
	Parent Role
}

// Permission rows: p, role, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
