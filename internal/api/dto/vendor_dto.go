package dto

import (
	"time"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// VendorRegisterRequest payload.
type VendorRegisterRequest struct {
	BusinessName string `json:"business_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// VendorLoginRequest payload.
type VendorLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a signed token and its expiry.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VendorResponse is the public vendor representation.
type VendorResponse struct {
	ID            string    `json:"id"`
	BusinessName  string    `json:"business_name"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	EmailVerified bool      `json:"email_verified"`
	KYCStatus     string    `json:"kyc_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewVendorResponse maps a vendor to its response shape.
func NewVendorResponse(v *domain.Vendor) VendorResponse {
	return VendorResponse{
		ID:            v.ID,
		BusinessName:  v.BusinessName,
		Email:         v.Email,
		Status:        string(v.Status),
		EmailVerified: v.EmailVerified,
		KYCStatus:     string(v.KYCStatus),
		CreatedAt:     v.CreatedAt,
	}
}
