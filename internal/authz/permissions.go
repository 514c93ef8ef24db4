package authz

import (
	"fmt"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// Permission is an opaque token naming a single allowed action.
type Permission string

const (
	PermSubmitKYC            Permission = "submit_kyc"
	PermReviewKYC            Permission = "review_kyc"
	PermCreateInvoice        Permission = "create_invoice"
	PermApproveInvoice       Permission = "approve_invoice"
	PermAssignInvoice        Permission = "assign_invoice"
	PermCreateMilestone      Permission = "create_milestone"
	PermUpdateMilestone      Permission = "update_milestone"
	PermAssignMilestone      Permission = "assign_milestone"
	PermCreateFundingRequest Permission = "create_funding_request"
	PermCosignFundingRequest Permission = "cosign_funding_request"
	PermViewQueue            Permission = "view_queue"
	PermViewAuditLog         Permission = "view_audit_log"
	PermManageStaff          Permission = "manage_staff"
)

// rolePermissions is the static role→permission table. It is validated once at
// package load and read-only afterwards; unknown roles resolve to the empty
// set (fail closed).
var rolePermissions = map[domain.Role][]Permission{
	domain.RoleVendor: {
		PermSubmitKYC,
		PermCreateInvoice,
		PermCreateMilestone,
		PermCreateFundingRequest,
	},
	domain.RoleCreditOpsAnalyst: {
		PermUpdateMilestone,
		PermViewQueue,
	},
	domain.RoleCreditOpsLead: {
		PermApproveInvoice,
		PermCosignFundingRequest,
		PermUpdateMilestone,
		PermAssignMilestone,
		PermViewQueue,
	},
	domain.RoleAdmin: {
		PermReviewKYC,
		PermApproveInvoice,
		PermAssignInvoice,
		PermUpdateMilestone,
		PermAssignMilestone,
		PermViewQueue,
		PermViewAuditLog,
	},
	domain.RoleSuperAdmin: {
		PermReviewKYC,
		PermApproveInvoice,
		PermAssignInvoice,
		PermUpdateMilestone,
		PermAssignMilestone,
		PermCosignFundingRequest,
		PermViewQueue,
		PermViewAuditLog,
		PermManageStaff,
	},
}

var permissionSets map[domain.Role]map[Permission]struct{}

func init() {
	if err := validateTable(); err != nil {
		panic(err)
	}
	permissionSets = make(map[domain.Role]map[Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		permissionSets[role] = set
	}
}

func validateTable() error {
	for _, role := range domain.AllRoles() {
		perms, ok := rolePermissions[role]
		if !ok {
			return fmt.Errorf("authz: role %s missing from permission table", role)
		}
		if len(perms) == 0 {
			return fmt.Errorf("authz: role %s has an empty permission set", role)
		}
		seen := make(map[Permission]struct{}, len(perms))
		for _, perm := range perms {
			if perm == "" {
				return fmt.Errorf("authz: role %s contains an empty permission token", role)
			}
			if _, dup := seen[perm]; dup {
				return fmt.Errorf("authz: role %s lists %s twice", role, perm)
			}
			seen[perm] = struct{}{}
		}
	}
	for role := range rolePermissions {
		if !role.Valid() {
			return fmt.Errorf("authz: permission table references unknown role %s", role)
		}
	}
	return nil
}

// PermissionsFor returns the permission set for a role. Unknown roles yield an
// empty set.
func PermissionsFor(role domain.Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role grants the permission token.
func HasPermission(role domain.Role, perm Permission) bool {
	_, ok := permissionSets[role][perm]
	return ok
}

// HasAny reports whether the role grants at least one of the tokens.
func HasAny(role domain.Role, perms ...Permission) bool {
	for _, perm := range perms {
		if HasPermission(role, perm) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role grants every one of the tokens.
func HasAll(role domain.Role, perms ...Permission) bool {
	for _, perm := range perms {
		if !HasPermission(role, perm) {
			return false
		}
	}
	return true
}
