package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/config"
	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	vendors    repository.VendorRepository
	staff      repository.StaffRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	VendorRepo        repository.VendorRepository
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		vendors:    deps.VendorRepo,
		staff:      deps.StaffRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterVendor creates a new vendor account. The account starts unverified
// with identity verification pending.
func (s *AuthService) RegisterVendor(ctx context.Context, businessName, email, password string) (*domain.Vendor, string, time.Time, error) {
	if _, err := s.vendors.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	vendor := &domain.Vendor{
		BusinessName: businessName,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.VendorStatusActive,
		KYCStatus:    domain.StatePending,
	}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(vendor.ID, domain.SubjectTypeVendor, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return vendor, token, exp, nil
}

// LoginVendor authenticates a vendor.
func (s *AuthService) LoginVendor(ctx context.Context, email, password string) (*domain.Vendor, string, time.Time, error) {
	vendor, err := s.vendors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if vendor.Status != domain.VendorStatusActive {
		return nil, "", time.Time{}, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(vendor.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(vendor.ID, domain.SubjectTypeVendor, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return vendor, token, exp, nil
}

// LoginStaff authenticates staff and returns a role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !staff.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("staff inactive")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(staff.ID, domain.SubjectTypeStaff, &staff.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return staff, token, exp, nil
}

// RequestPasswordReset persists a reset token for either vendor or staff
// email. Unknown emails yield no token and no error, so callers cannot probe
// which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	subjectType := domain.SubjectTypeVendor
	subjectID := ""

	if vendor, err := s.vendors.GetByEmail(ctx, email); err == nil {
		subjectID = vendor.ID
	} else if errors.Is(err, pgx.ErrNoRows) {
		staff, staffErr := s.staff.GetByEmail(ctx, email)
		if staffErr != nil {
			if errors.Is(staffErr, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, staffErr
		}
		subjectType = domain.SubjectTypeStaff
		subjectID = staff.ID
	} else {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeVendor:
		vendor, err := s.vendors.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		vendor.PasswordHash = hash
		if err := s.vendors.Update(ctx, vendor); err != nil {
			return err
		}
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		staff.PasswordHash = hash
		if err := s.staff.Update(ctx, staff); err != nil {
			return err
		}
	default:
		return apperrors.NewValidationError("unknown subject type", nil)
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch subject.Type {
	case domain.SubjectTypeVendor:
		vendor, err := s.vendors.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(vendor.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		vendor.PasswordHash = hash
		return s.vendors.Update(ctx, vendor)
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(staff.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		staff.PasswordHash = hash
		return s.staff.Update(ctx, staff)
	default:
		return apperrors.NewValidationError("unknown subject", nil)
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
