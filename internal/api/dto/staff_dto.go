package dto

import (
	"time"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// StaffCreateRequest payload for provisioning a staff account.
type StaffCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// StaffActiveRequest toggles a staff account.
type StaffActiveRequest struct {
	Active bool `json:"active"`
}

// StaffResponse is the public staff representation.
type StaffResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStaffResponse maps a staff member to its response shape.
func NewStaffResponse(m *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      string(m.Role),
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}

// NewStaffResponses maps a slice of staff members.
func NewStaffResponses(members []domain.StaffMember) []StaffResponse {
	out := make([]StaffResponse, 0, len(members))
	for i := range members {
		out = append(out, NewStaffResponse(&members[i]))
	}
	return out
}
