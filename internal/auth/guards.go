package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vendor-finance/internal/authz"
	"github.com/spec-kit/vendor-finance/internal/domain"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// RequireVendor ensures a vendor is authenticated.
func RequireVendor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Vendor == nil {
			return apperrors.NewForbidden("vendor account required")
		}
		return c.Next()
	}
}

// RequireStaff ensures a staff principal, optionally restricted to roles.
func RequireStaff(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Staff == nil {
			return apperrors.NewForbidden("staff role required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		if err := authz.Authorize(principal, authz.AnyRole(allowed...)); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequirePermission ensures the principal's role grants the permission token.
func RequirePermission(perm authz.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := authz.Authorize(principal, authz.WithPermission(perm)); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the caller is authenticated (vendor or staff).
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
