package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/vendor-finance/internal/authz"
	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/events"
	"github.com/spec-kit/vendor-finance/internal/repository"
	"github.com/spec-kit/vendor-finance/internal/workflow"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

// AssignmentService routes unassigned work items to eligible staff.
type AssignmentService struct {
	entities    repository.WorkflowRepository
	assignments repository.AssignmentRepository
	staff       repository.StaffRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	WorkflowRepo   repository.WorkflowRepository
	AssignmentRepo repository.AssignmentRepository
	StaffRepo      repository.StaffRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		entities:    deps.WorkflowRepo,
		assignments: deps.AssignmentRepo,
		staff:       deps.StaffRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// pool describes which staff role serves an entity type and which permission
// an assigning principal must hold.
type pool struct {
	StaffRole domain.Role
	Requires  authz.Permission
}

var assignmentPools = map[domain.EntityType]pool{
	domain.EntityInvoice:   {StaffRole: domain.RoleCreditOpsLead, Requires: authz.PermAssignInvoice},
	domain.EntityMilestone: {StaffRole: domain.RoleCreditOpsAnalyst, Requires: authz.PermAssignMilestone},
}

// AssignInput describes a manual assignment request.
type AssignInput struct {
	EntityType domain.EntityType
	EntityIDs  []string
	StaffID    string
	Reassign   bool
}

// Assign routes the given entities to a staff member. Entities already
// actively assigned to a different staff member are rejected unless the
// caller explicitly requests reassignment, in which case the prior
// assignment is superseded.
func (s *AssignmentService) Assign(ctx context.Context, principal *authz.Principal, input AssignInput) ([]domain.WorkflowEntity, error) {
	poolCfg, ok := assignmentPools[input.EntityType]
	if !ok {
		return nil, apperrors.NewValidationError("entity type is not assignable", map[string]any{"entity_type": input.EntityType})
	}
	if len(input.EntityIDs) == 0 {
		return nil, apperrors.NewValidationError("entity_ids required", nil)
	}
	if strings.TrimSpace(input.StaffID) == "" {
		return nil, apperrors.NewValidationError("staff_id required", nil)
	}
	if err := authz.Authorize(principal, authz.WithPermission(poolCfg.Requires)); err != nil {
		return nil, err
	}

	assignee, err := s.staff.GetByID(ctx, input.StaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": input.StaffID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staff_id": assignee.ID})
	}
	if assignee.Role != poolCfg.StaffRole {
		return nil, apperrors.NewConflict("assignee outside entity pool", map[string]any{
			"staff_id":      assignee.ID,
			"required_role": poolCfg.StaffRole,
		})
	}

	updated := make([]domain.WorkflowEntity, 0, len(input.EntityIDs))
	for _, entityID := range input.EntityIDs {
		entity, err := s.assignOne(ctx, principal, input.EntityType, entityID, assignee, input.Reassign)
		if err != nil {
			return nil, err
		}
		updated = append(updated, *entity)
	}
	return updated, nil
}

func (s *AssignmentService) assignOne(ctx context.Context, principal *authz.Principal, entityType domain.EntityType, entityID string, assignee *domain.StaffMember, reassign bool) (*domain.WorkflowEntity, error) {
	entity, err := s.entities.GetByID(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("entity", map[string]any{"entity_id": entityID})
		}
		return nil, apperrors.MapError(err)
	}

	def, _ := workflow.Lookup(entityType)
	if def.IsTerminal(entity.State) {
		return nil, apperrors.NewConflict("entity not in assignable state", map[string]any{
			"entity_id": entityID,
			"state":     entity.State,
		})
	}

	active, err := s.assignments.ActiveForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	var supersedeID *string
	if active != nil {
		if active.StaffID == assignee.ID {
			return entity, nil
		}
		if !reassign {
			return nil, apperrors.NewAlreadyAssigned("entity has an active assignment", map[string]any{
				"entity_id": entityID,
				"staff_id":  active.StaffID,
			})
		}
		supersedeID = &active.ID
	}

	assignment := &domain.Assignment{
		EntityType: entityType,
		EntityID:   entityID,
		StaffID:    assignee.ID,
		AssignedBy: principal.ID(),
	}
	entry := assignmentAuditEntry(principal, entity, assignee.ID, supersedeID)

	updated, err := s.assignments.Commit(ctx, assignment, supersedeID, entity.Version, entry)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperrors.NewStaleVersion("entity was modified concurrently", map[string]any{"entity_id": entityID})
		case errors.Is(err, repository.ErrAssignmentConflict):
			return nil, apperrors.NewAlreadyAssigned("assignment superseded concurrently", map[string]any{"entity_id": entityID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventWorkItemAssigned,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actorFor(principal),
		Payload: events.WorkItemAssignedPayload{
			StaffID:      assignee.ID,
			SupersededID: supersedeID,
		},
	})
	return updated, nil
}

// SuggestBalancedAssignee returns the pool member with the fewest pending
// items; ties break by earliest staff creation, then id. Advisory only: the
// suggestion is never committed without an explicit Assign call.
func (s *AssignmentService) SuggestBalancedAssignee(ctx context.Context, principal *authz.Principal, entityType domain.EntityType) (*domain.StaffMember, error) {
	poolCfg, ok := assignmentPools[entityType]
	if !ok {
		return nil, apperrors.NewValidationError("entity type is not assignable", map[string]any{"entity_type": entityType})
	}
	if err := authz.Authorize(principal, authz.WithPermission(poolCfg.Requires)); err != nil {
		return nil, err
	}

	active := true
	staffList, err := s.staff.List(ctx, repository.StaffFilter{
		Roles:  []domain.Role{poolCfg.StaffRole},
		Active: &active,
		Limit:  1000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(staffList) == 0 {
		return nil, apperrors.NewNotFound("eligible staff", map[string]any{"role": poolCfg.StaffRole})
	}

	counts, err := s.assignments.CountActiveByStaff(ctx, entityType, []domain.State{domain.StatePending})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	best := &staffList[0]
	for i := 1; i < len(staffList); i++ {
		candidate := &staffList[i]
		if counts[candidate.ID] < counts[best.ID] {
			best = candidate
			continue
		}
		if counts[candidate.ID] == counts[best.ID] && earlier(candidate, best) {
			best = candidate
		}
	}
	return best, nil
}

// History returns all assignments ever made for an entity, oldest first.
func (s *AssignmentService) History(ctx context.Context, principal *authz.Principal, entityType domain.EntityType, entityID string) ([]domain.Assignment, error) {
	if !entityType.Valid() {
		return nil, apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": entityType})
	}
	if err := authz.Authorize(principal, authz.WithPermission(authz.PermViewQueue)); err != nil {
		return nil, err
	}
	history, err := s.assignments.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

func earlier(a, b *domain.StaffMember) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func assignmentAuditEntry(principal *authz.Principal, entity *domain.WorkflowEntity, staffID string, supersedeID *string) *domain.AuditEntry {
	actorID := principal.ID()
	entry := &domain.AuditEntry{
		ActorType:     domain.ActorTypeStaff,
		ActorID:       &actorID,
		Action:        domain.AuditActionAssignment,
		EntityType:    entity.Type,
		EntityID:      entity.ID,
		PreviousState: entity.State,
		NewState:      entity.State,
		Detail: map[string]any{
			"staff_id": staffID,
		},
	}
	if supersedeID != nil {
		entry.Detail["superseded_assignment_id"] = *supersedeID
	}
	return entry
}

func (s *AssignmentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
