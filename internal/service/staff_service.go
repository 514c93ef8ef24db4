package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/authz"
	"github.com/spec-kit/vendor-finance/internal/config"
	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// StaffService manages credit-operations staff accounts.
type StaffService struct {
	staff      repository.StaffRepository
	bcryptCost int
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, staffRepo repository.StaffRepository) *StaffService {
	return &StaffService{staff: staffRepo, bcryptCost: cfg.Auth.BcryptCost}
}

// StaffCreateInput describes a new staff account.
type StaffCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// CreateStaff provisions a staff account.
func (s *StaffService) CreateStaff(ctx context.Context, principal *authz.Principal, input StaffCreateInput) (*domain.StaffMember, error) {
	if err := authz.Authorize(principal, authz.WithPermission(authz.PermManageStaff)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if !input.Role.IsStaff() {
		return nil, apperrors.NewValidationError("role must be a staff role", map[string]any{"role": input.Role})
	}
	if _, err := s.staff.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	staff := &domain.StaffMember{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaff returns staff members, optionally filtered by role.
func (s *StaffService) ListStaff(ctx context.Context, principal *authz.Principal, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	if err := authz.Authorize(principal, authz.AnyRole(domain.StaffRoles()...)); err != nil {
		return nil, err
	}
	staff, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// SetActive enables or disables a staff account.
func (s *StaffService) SetActive(ctx context.Context, principal *authz.Principal, staffID string, active bool) (*domain.StaffMember, error) {
	if err := authz.Authorize(principal, authz.WithPermission(authz.PermManageStaff)); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	staff.Active = active
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}
