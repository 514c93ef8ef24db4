package domain

// SubjectType differentiates vendor vs staff tokens.
type SubjectType string

const (
	SubjectTypeVendor SubjectType = "VENDOR"
	SubjectTypeStaff  SubjectType = "STAFF"
)

// Role enumerates the closed set of platform roles.
type Role string

const (
	RoleVendor           Role = "VENDOR"
	RoleCreditOpsAnalyst Role = "CREDIT_OPS_ANALYST"
	RoleCreditOpsLead    Role = "CREDIT_OPS_LEAD"
	RoleAdmin            Role = "ADMIN"
	RoleSuperAdmin       Role = "SUPER_ADMIN"
)

// AllRoles lists every known role, vendor included.
func AllRoles() []Role {
	return []Role{RoleVendor, RoleCreditOpsAnalyst, RoleCreditOpsLead, RoleAdmin, RoleSuperAdmin}
}

// StaffRoles lists the internal operator roles.
func StaffRoles() []Role {
	return []Role{RoleCreditOpsAnalyst, RoleCreditOpsLead, RoleAdmin, RoleSuperAdmin}
}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleVendor, RoleCreditOpsAnalyst, RoleCreditOpsLead, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role is an internal operator role.
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleVendor
}
