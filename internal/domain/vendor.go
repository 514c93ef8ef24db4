package domain

import "time"

// VendorStatus represents lifecycle states for a vendor account.
type VendorStatus string

const (
	VendorStatusActive    VendorStatus = "ACTIVE"
	VendorStatusSuspended VendorStatus = "SUSPENDED"
)

// Vendor is the domain model for vendors who submit financing records.
type Vendor struct {
	ID            string
	BusinessName  string
	Email         string
	PasswordHash  string
	Status        VendorStatus
	EmailVerified bool
	KYCStatus     State
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
