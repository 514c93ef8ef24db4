package service

import (
	"context"

	"github.com/spec-kit/vendor-finance/internal/authz"
	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// AuditService exposes read access to the append-only audit trail.
type AuditService struct {
	audit repository.AuditRepository
}

// NewAuditService constructs the service.
func NewAuditService(audit repository.AuditRepository) *AuditService {
	return &AuditService{audit: audit}
}

// Query returns audit entries matching the filter, newest first.
func (s *AuditService) Query(ctx context.Context, principal *authz.Principal, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	if err := authz.Authorize(principal, authz.WithPermission(authz.PermViewAuditLog)); err != nil {
		return nil, err
	}
	entries, err := s.audit.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// EntityHistory returns the audit entries for a single entity, newest first.
// Staff with queue access may inspect per-entity history even without the
// full audit-log permission.
func (s *AuditService) EntityHistory(ctx context.Context, principal *authz.Principal, entityType domain.EntityType, entityID string) ([]domain.AuditEntry, error) {
	if !entityType.Valid() {
		return nil, apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": entityType})
	}
	if err := authz.Authorize(principal, authz.WithPermission(authz.PermViewQueue)); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
