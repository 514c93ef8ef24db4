package authz

import (
	"testing"

	"github.com/spec-kit/vendor-finance/internal/domain"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

func vendorPrincipal(id string) *Principal {
	return &Principal{
		SubjectType: domain.SubjectTypeVendor,
		Vendor:      &domain.Vendor{ID: id, Status: domain.VendorStatusActive},
	}
}

func staffPrincipal(id string, role domain.Role) *Principal {
	return &Principal{
		SubjectType: domain.SubjectTypeStaff,
		Staff:       &domain.StaffMember{ID: id, Role: role, Active: true},
	}
}

func TestAuthorizeMissingPrincipal(t *testing.T) {
	if err := Authorize(nil, AnyRole()); !apperrors.HasCode(err, "UNAUTHORIZED") {
		t.Fatalf("nil principal: got %v, want UNAUTHORIZED", err)
	}

	hollow := &Principal{SubjectType: domain.SubjectTypeStaff}
	if err := Authorize(hollow, AnyRole()); !apperrors.HasCode(err, "UNAUTHORIZED") {
		t.Fatalf("principal without subject: got %v, want UNAUTHORIZED", err)
	}
}

func TestAuthorizeRoleRequirement(t *testing.T) {
	lead := staffPrincipal("s1", domain.RoleCreditOpsLead)
	if err := Authorize(lead, AnyRole(domain.RoleCreditOpsLead, domain.RoleAdmin)); err != nil {
		t.Fatalf("lead should pass role check: %v", err)
	}
	if err := Authorize(lead, AnyRole(domain.RoleAdmin)); !apperrors.HasCode(err, "FORBIDDEN") {
		t.Fatalf("lead against admin-only: got %v, want FORBIDDEN", err)
	}
	// Empty allow-list admits any authenticated principal.
	if err := Authorize(vendorPrincipal("v1"), AnyRole()); err != nil {
		t.Fatalf("empty allow-list should admit vendor: %v", err)
	}
}

func TestAuthorizePermissionRequirement(t *testing.T) {
	vendor := vendorPrincipal("v1")
	if err := Authorize(vendor, WithPermission(PermCreateInvoice)); err != nil {
		t.Fatalf("vendor should hold create_invoice: %v", err)
	}
	if err := Authorize(vendor, WithPermission(PermApproveInvoice)); !apperrors.HasCode(err, "FORBIDDEN") {
		t.Fatalf("vendor against approve_invoice: got %v, want FORBIDDEN", err)
	}

	analyst := staffPrincipal("s2", domain.RoleCreditOpsAnalyst)
	if err := Authorize(analyst, WithPermission(PermUpdateMilestone)); err != nil {
		t.Fatalf("analyst should hold update_milestone: %v", err)
	}
}

func TestPrincipalRoleAndID(t *testing.T) {
	vendor := vendorPrincipal("v9")
	if got := vendor.Role(); got != domain.RoleVendor {
		t.Fatalf("vendor role = %s", got)
	}
	if got := vendor.ID(); got != "v9" {
		t.Fatalf("vendor id = %s", got)
	}

	var nilPrincipal *Principal
	if nilPrincipal.Role() != "" || nilPrincipal.ID() != "" {
		t.Fatal("nil principal should have empty role and id")
	}
}
