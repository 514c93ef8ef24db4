package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vendor-finance/internal/api/dto"
	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
	"github.com/spec-kit/vendor-finance/internal/service"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// StaffHandler exposes staff authentication and account management endpoints.
type StaffHandler struct {
	authService  *service.AuthService
	staffService *service.StaffService
}

// NewStaffHandler returns a new handler instance.
func NewStaffHandler(authService *service.AuthService, staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{authService: authService, staffService: staffService}
}

// Login authenticates a staff member.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	member, token, expiresAt, err := h.authService.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": dto.NewStaffResponse(member),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// RequestPasswordReset initiates a password reset flow. The response is
// identical whether or not the email is known.
func (h *StaffHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if _, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "if the account exists, a reset link has been sent"},
	})
}

// ConfirmPasswordReset completes a password reset with a one-time token.
func (h *StaffHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "password updated"},
	})
}

// ChangePassword updates the authenticated caller's password.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	subject := service.AuthSubject{Type: principal.SubjectType, ID: principal.ID()}
	if err := h.authService.ChangePassword(c.UserContext(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "password updated"},
	})
}

// Create provisions a new staff account.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	member, err := h.staffService.CreateStaff(c.UserContext(), principal, service.StaffCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.NewStaffResponse(member),
	})
}

// List returns staff accounts, optionally filtered by role and active flag.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := repository.StaffFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if role := c.Query("role"); role != "" {
		filter.Roles = []domain.Role{domain.Role(role)}
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}

	members, err := h.staffService.ListStaff(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewStaffResponses(members),
	})
}

// SetActive enables or disables a staff account.
func (h *StaffHandler) SetActive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.StaffActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	member, err := h.staffService.SetActive(c.UserContext(), principal, c.Params("id"), req.Active)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewStaffResponse(member),
	})
}
