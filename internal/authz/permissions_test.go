package authz

import (
	"testing"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

func TestRolePermissionTable(t *testing.T) {
	cases := []struct {
		role    domain.Role
		granted []Permission
		denied  []Permission
	}{
		{
			role:    domain.RoleVendor,
			granted: []Permission{PermSubmitKYC, PermCreateInvoice, PermCreateMilestone, PermCreateFundingRequest},
			denied:  []Permission{PermReviewKYC, PermApproveInvoice, PermViewQueue, PermManageStaff},
		},
		{
			role:    domain.RoleCreditOpsAnalyst,
			granted: []Permission{PermUpdateMilestone, PermViewQueue},
			denied:  []Permission{PermApproveInvoice, PermAssignMilestone, PermReviewKYC, PermViewAuditLog},
		},
		{
			role:    domain.RoleCreditOpsLead,
			granted: []Permission{PermApproveInvoice, PermCosignFundingRequest, PermAssignMilestone, PermViewQueue},
			denied:  []Permission{PermReviewKYC, PermAssignInvoice, PermViewAuditLog, PermManageStaff},
		},
		{
			role:    domain.RoleAdmin,
			granted: []Permission{PermReviewKYC, PermAssignInvoice, PermViewAuditLog},
			denied:  []Permission{PermSubmitKYC, PermManageStaff},
		},
		{
			role:    domain.RoleSuperAdmin,
			granted: []Permission{PermReviewKYC, PermAssignInvoice, PermViewAuditLog, PermManageStaff},
			denied:  []Permission{PermSubmitKYC},
		},
	}

	for _, tc := range cases {
		for _, perm := range tc.granted {
			if !HasPermission(tc.role, perm) {
				t.Errorf("%s should hold %s", tc.role, perm)
			}
		}
		for _, perm := range tc.denied {
			if HasPermission(tc.role, perm) {
				t.Errorf("%s should not hold %s", tc.role, perm)
			}
		}
	}
}

func TestUnknownRoleResolvesEmpty(t *testing.T) {
	if perms := PermissionsFor(domain.Role("INTERN")); len(perms) != 0 {
		t.Fatalf("unknown role resolved to %v, want empty set", perms)
	}
	if HasPermission(domain.Role(""), PermViewQueue) {
		t.Fatal("empty role should hold nothing")
	}
}

func TestHasAnyHasAll(t *testing.T) {
	if !HasAny(domain.RoleCreditOpsAnalyst, PermApproveInvoice, PermUpdateMilestone) {
		t.Fatal("HasAny should match update_milestone")
	}
	if HasAny(domain.RoleCreditOpsAnalyst, PermApproveInvoice, PermReviewKYC) {
		t.Fatal("HasAny matched permissions the analyst does not hold")
	}
	if !HasAll(domain.RoleAdmin, PermReviewKYC, PermViewAuditLog) {
		t.Fatal("HasAll should hold for admin")
	}
	if HasAll(domain.RoleAdmin, PermReviewKYC, PermManageStaff) {
		t.Fatal("HasAll should fail on manage_staff for admin")
	}
}

func TestPermissionsForReturnsCopy(t *testing.T) {
	perms := PermissionsFor(domain.RoleVendor)
	if len(perms) == 0 {
		t.Fatal("vendor permissions empty")
	}
	perms[0] = Permission("tampered")
	if HasPermission(domain.RoleVendor, Permission("tampered")) {
		t.Fatal("mutation of returned slice leaked into the table")
	}
}
