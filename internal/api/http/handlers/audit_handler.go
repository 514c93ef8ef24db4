package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vendor-finance/internal/api/dto"
	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/repository"
	"github.com/spec-kit/vendor-finance/internal/service"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// AuditHandler exposes audit trail query endpoints.
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler returns a new handler instance.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// Query returns audit entries matching the filters, most recent first.
func (h *AuditHandler) Query(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := repository.AuditFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if slug := c.Query("entity_type"); slug != "" {
		entityType, ok := entityTypeSlugs[slug]
		if !ok {
			return apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": slug})
		}
		filter.EntityType = &entityType
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		filter.EntityID = &entityID
	}
	if actorID := c.Query("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return apperrors.NewValidationError("invalid from timestamp", map[string]any{"from": from})
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return apperrors.NewValidationError("invalid to timestamp", map[string]any{"to": to})
		}
		filter.To = &t
	}

	entries, err := h.auditService.Query(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewAuditEntryResponses(entries),
	})
}

// EntityHistory returns the audit trail for a single entity.
func (h *AuditHandler) EntityHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	entries, err := h.auditService.EntityHistory(c.UserContext(), principal, entityType, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewAuditEntryResponses(entries),
	})
}
