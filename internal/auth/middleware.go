package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/vendor-finance/internal/authz"
	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads principals. The principal
// is built once here and passed explicitly into every service call; no core
// code reads session state on its own.
type AuthMiddleware struct {
	tokens  *TokenManager
	vendors repository.VendorRepository
	staff   repository.StaffRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, vendors repository.VendorRepository, staff repository.StaffRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, vendors: vendors, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &authz.Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeVendor:
		vendor, err := m.vendors.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("vendor not found")
			}
			return apperrors.MapError(err)
		}
		if vendor.Status != domain.VendorStatusActive {
			return apperrors.NewForbidden("account suspended")
		}
		principal.Vendor = vendor
	case domain.SubjectTypeStaff:
		staff, err := m.staff.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("staff not found")
			}
			return apperrors.MapError(err)
		}
		if !staff.Active {
			return apperrors.NewForbidden("staff inactive")
		}
		principal.Staff = staff
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*authz.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*authz.Principal)
	return principal, ok
}
