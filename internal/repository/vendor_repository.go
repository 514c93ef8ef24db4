package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// VendorRepository defines persistence access for vendor accounts.
type VendorRepository interface {
	Create(ctx context.Context, vendor *domain.Vendor) error
	Update(ctx context.Context, vendor *domain.Vendor) error
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Vendor, error)
	SetKYCStatus(ctx context.Context, vendorID string, status domain.State) error
}

type vendorRepository struct {
	pool *pgxpool.Pool
}

// NewVendorRepository returns a Postgres-backed implementation.
func NewVendorRepository(pool *pgxpool.Pool) VendorRepository {
	return &vendorRepository{pool: pool}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	const query = `
        INSERT INTO vendors (business_name, email, password_hash, status, email_verified, kyc_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		vendor.BusinessName,
		vendor.Email,
		vendor.PasswordHash,
		vendor.Status,
		vendor.EmailVerified,
		vendor.KYCStatus,
	).Scan(&vendor.ID, &vendor.CreatedAt, &vendor.UpdatedAt)
}

func (r *vendorRepository) Update(ctx context.Context, vendor *domain.Vendor) error {
	const query = `
        UPDATE vendors SET business_name=$1, email=$2, password_hash=$3, status=$4,
            email_verified=$5, kyc_status=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		vendor.BusinessName,
		vendor.Email,
		vendor.PasswordHash,
		vendor.Status,
		vendor.EmailVerified,
		vendor.KYCStatus,
		vendor.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	const query = `
        SELECT id, business_name, email, password_hash, status, email_verified, kyc_status, created_at, updated_at
        FROM vendors WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *vendorRepository) GetByEmail(ctx context.Context, email string) (*domain.Vendor, error) {
	const query = `
        SELECT id, business_name, email, password_hash, status, email_verified, kyc_status, created_at, updated_at
        FROM vendors WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *vendorRepository) SetKYCStatus(ctx context.Context, vendorID string, status domain.State) error {
	const query = `
        UPDATE vendors SET kyc_status=$1, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, vendorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vendorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Vendor, error) {
	var vendor domain.Vendor
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&vendor.ID,
		&vendor.BusinessName,
		&vendor.Email,
		&vendor.PasswordHash,
		&vendor.Status,
		&vendor.EmailVerified,
		&vendor.KYCStatus,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vendor, nil
}
