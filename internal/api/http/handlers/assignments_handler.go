package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vendor-finance/internal/api/dto"
	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/service"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// AssignmentsHandler exposes work distribution endpoints.
type AssignmentsHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentsHandler returns a new handler instance.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{assignmentService: assignmentService}
}

// Assign routes one or more entities to a staff member.
func (h *AssignmentsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	entities, err := h.assignmentService.Assign(c.UserContext(), principal, service.AssignInput{
		EntityType: entityType,
		EntityIDs:  req.EntityIDs,
		StaffID:    req.StaffID,
		Reassign:   req.Reassign,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewEntityResponses(entities),
	})
}

// Suggest returns the least-loaded pool member for the entity type.
func (h *AssignmentsHandler) Suggest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	member, err := h.assignmentService.SuggestBalancedAssignee(c.UserContext(), principal, entityType)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewStaffResponse(member),
	})
}

// History returns the full assignment record for an entity, superseded rows
// included.
func (h *AssignmentsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entityType, err := parseEntityType(c)
	if err != nil {
		return err
	}

	assignments, err := h.assignmentService.History(c.UserContext(), principal, entityType, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewAssignmentResponses(assignments),
	})
}
