package authz

import (
	"github.com/spec-kit/vendor-finance/internal/domain"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// Principal represents the authenticated caller. It is built once per request
// by the session layer and passed explicitly into every core call.
type Principal struct {
	SubjectType domain.SubjectType
	Vendor      *domain.Vendor
	Staff       *domain.StaffMember
}

// Role returns the principal's effective role.
func (p *Principal) Role() domain.Role {
	if p == nil {
		return ""
	}
	if p.SubjectType == domain.SubjectTypeStaff && p.Staff != nil {
		return p.Staff.Role
	}
	if p.SubjectType == domain.SubjectTypeVendor && p.Vendor != nil {
		return domain.RoleVendor
	}
	return ""
}

// ID returns the principal's subject identifier.
func (p *Principal) ID() string {
	if p == nil {
		return ""
	}
	switch p.SubjectType {
	case domain.SubjectTypeVendor:
		if p.Vendor != nil {
			return p.Vendor.ID
		}
	case domain.SubjectTypeStaff:
		if p.Staff != nil {
			return p.Staff.ID
		}
	}
	return ""
}

// Requirement describes what a protected operation demands: either an
// explicit role allow-list or a single permission token.
type Requirement struct {
	roles      []domain.Role
	permission Permission
}

// AnyRole builds a requirement satisfied by any of the listed roles.
func AnyRole(roles ...domain.Role) Requirement {
	return Requirement{roles: roles}
}

// WithPermission builds a requirement satisfied by any role granting the token.
func WithPermission(perm Permission) Requirement {
	return Requirement{permission: perm}
}

// Authorize checks the principal against the requirement. A missing principal
// yields Unauthorized; an insufficient one yields Forbidden. Failures carry no
// information about any target entity.
func Authorize(principal *Principal, req Requirement) error {
	if principal == nil || principal.Role() == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	role := principal.Role()
	if req.permission != "" {
		if !HasPermission(role, req.permission) {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return nil
	}
	if len(req.roles) == 0 {
		return nil
	}
	for _, allowed := range req.roles {
		if role == allowed {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}
