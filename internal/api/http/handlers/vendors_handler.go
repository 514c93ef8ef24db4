package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vendor-finance/internal/api/dto"
	"github.com/spec-kit/vendor-finance/internal/service"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// VendorsHandler exposes vendor registration and login endpoints.
type VendorsHandler struct {
	authService *service.AuthService
}

// NewVendorsHandler returns a new handler instance.
func NewVendorsHandler(authService *service.AuthService) *VendorsHandler {
	return &VendorsHandler{authService: authService}
}

// Register creates a vendor account and returns a signed token.
func (h *VendorsHandler) Register(c *fiber.Ctx) error {
	var req dto.VendorRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	vendor, token, expiresAt, err := h.authService.RegisterVendor(c.UserContext(), req.BusinessName, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"vendor": dto.NewVendorResponse(vendor),
			"auth":   dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// Login authenticates a vendor.
func (h *VendorsHandler) Login(c *fiber.Ctx) error {
	var req dto.VendorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	vendor, token, expiresAt, err := h.authService.LoginVendor(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"vendor": dto.NewVendorResponse(vendor),
			"auth":   dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}
