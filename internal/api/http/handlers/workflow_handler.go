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

// entityTypeSlugs maps URL path segments to workflow entity types.
var entityTypeSlugs = map[string]domain.EntityType{
	"identity-verifications": domain.EntityIdentityVerification,
	"invoices":               domain.EntityInvoice,
	"milestones":             domain.EntityMilestone,
	"funding-requests":       domain.EntityFundingRequest,
}

func parseEntityType(c *fiber.Ctx) (domain.EntityType, error) {
	slug := c.Params("entityType")
	entityType, ok := entityTypeSlugs[slug]
	if !ok {
		return "", apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": slug})
	}
	return entityType, nil
}

// WorkflowHandler exposes workflow entity CRUD and transition endpoints.
type WorkflowHandler struct {
	workflowService *service.WorkflowService
}

// NewWorkflowHandler returns a new handler instance.
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

// Create submits a new workflow entity for the authenticated vendor.
func (h *WorkflowHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	var req dto.CreateEntityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	entity, err := h.workflowService.CreateEntity(c.UserContext(), principal, service.CreateInput{
		EntityType: entityType,
		Attributes: req.Attributes,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.NewEntityResponse(entity),
	})
}

// Get returns a single workflow entity.
func (h *WorkflowHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	entity, err := h.workflowService.GetEntity(c.UserContext(), principal, entityType, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewEntityResponse(entity),
	})
}

// List returns workflow entities matching the query filters. Vendors only
// ever see their own records.
func (h *WorkflowHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	filter := repository.WorkflowFilter{
		EntityType: entityType,
		Unassigned: c.Query("unassigned") == "true",
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	}
	if state := c.Query("state"); state != "" {
		filter.States = []domain.State{domain.State(state)}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if vendorID := c.Query("vendor_id"); vendorID != "" {
		filter.VendorID = &vendorID
	}

	entities, err := h.workflowService.ListEntities(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewEntityResponses(entities),
	})
}

// Transition applies a workflow event against an expected version.
func (h *WorkflowHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	entity, err := h.workflowService.ApplyTransition(c.UserContext(), principal, service.TransitionInput{
		EntityType:      entityType,
		EntityID:        c.Params("id"),
		Event:           domain.Event(req.Event),
		ExpectedVersion: req.ExpectedVersion,
		Comment:         req.Comment,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewEntityResponse(entity),
	})
}
