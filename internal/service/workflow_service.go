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

// WorkflowService validates and applies state transitions for the four
// workflow entity types. It is the only code path that writes entity state.
type WorkflowService struct {
	entities   repository.WorkflowRepository
	vendors    repository.VendorRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	WorkflowRepo repository.WorkflowRepository
	VendorRepo   repository.VendorRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		entities:   deps.WorkflowRepo,
		vendors:    deps.VendorRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateInput describes entity intake payload.
type CreateInput struct {
	EntityType domain.EntityType
	Attributes map[string]any
}

// TransitionInput describes a transition request.
type TransitionInput struct {
	EntityType      domain.EntityType
	EntityID        string
	Event           domain.Event
	ExpectedVersion int64
	Comment         string
}

var createPermissions = map[domain.EntityType]authz.Permission{
	domain.EntityIdentityVerification: authz.PermSubmitKYC,
	domain.EntityInvoice:              authz.PermCreateInvoice,
	domain.EntityMilestone:            authz.PermCreateMilestone,
	domain.EntityFundingRequest:       authz.PermCreateFundingRequest,
}

// CreateEntity creates a workflow entity in its initial state, owned by the
// acting vendor.
func (s *WorkflowService) CreateEntity(ctx context.Context, principal *authz.Principal, input CreateInput) (*domain.WorkflowEntity, error) {
	if !input.EntityType.Valid() {
		return nil, apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": input.EntityType})
	}
	if err := authz.Authorize(principal, authz.WithPermission(createPermissions[input.EntityType])); err != nil {
		return nil, err
	}
	if principal.Vendor == nil {
		return nil, apperrors.NewForbidden("vendor account required")
	}
	if err := validateAttributes(input.EntityType, input.Attributes); err != nil {
		return nil, err
	}

	def, _ := workflow.Lookup(input.EntityType)
	if input.EntityType == domain.EntityIdentityVerification {
		active, err := s.entities.ActiveByVendor(ctx, input.EntityType, principal.Vendor.ID, terminalStates(def))
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if active != nil {
			return nil, apperrors.NewConflict("identity verification already in progress", map[string]any{"entity_id": active.ID})
		}
	}

	entity := &domain.WorkflowEntity{
		Type:       input.EntityType,
		VendorID:   principal.Vendor.ID,
		State:      def.Initial,
		Attributes: input.Attributes,
	}
	if entity.Attributes == nil {
		entity.Attributes = map[string]any{}
	}
	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventEntityCreated,
		EntityType: entity.Type,
		EntityID:   entity.ID,
		Actor:      actorFor(principal),
		Payload: events.EntityCreatedPayload{
			VendorID: entity.VendorID,
			State:    entity.State,
		},
	})
	return entity, nil
}

// ApplyTransition validates and applies a state transition.
//
// Authorization is checked against the table before the entity is loaded, so
// a caller without the transition's permission learns nothing about whether
// the target exists.
func (s *WorkflowService) ApplyTransition(ctx context.Context, principal *authz.Principal, input TransitionInput) (*domain.WorkflowEntity, error) {
	if !input.EntityType.Valid() {
		return nil, apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": input.EntityType})
	}
	if strings.TrimSpace(input.EntityID) == "" {
		return nil, apperrors.NewValidationError("entity_id required", nil)
	}
	if input.Event == "" {
		return nil, apperrors.NewValidationError("event required", nil)
	}
	if input.ExpectedVersion < 1 {
		return nil, apperrors.NewValidationError("expected_version must be positive", nil)
	}

	if err := authz.Authorize(principal, authz.AnyRole()); err != nil {
		return nil, err
	}
	def, _ := workflow.Lookup(input.EntityType)
	eventPerms := permissionsForEvent(def, input.Event)
	if len(eventPerms) == 0 {
		return nil, apperrors.NewInvalidTransition("event not defined for entity type", map[string]any{
			"entity_type": input.EntityType,
			"event":       input.Event,
		})
	}
	if !authz.HasAny(principal.Role(), eventPerms...) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	entity, err := s.entities.GetByID(ctx, input.EntityType, input.EntityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("entity", map[string]any{"entity_id": input.EntityID})
		}
		return nil, apperrors.MapError(err)
	}
	// Vendors only ever see their own records; a foreign id looks absent.
	if principal.Vendor != nil && entity.VendorID != principal.Vendor.ID {
		return nil, apperrors.NewNotFound("entity", map[string]any{"entity_id": input.EntityID})
	}

	transition, ok := def.Next(entity.State, input.Event)
	if !ok {
		return nil, apperrors.NewInvalidTransition("event not defined for current state", map[string]any{
			"state": entity.State,
			"event": input.Event,
		})
	}
	if err := authz.Authorize(principal, authz.WithPermission(transition.Requires)); err != nil {
		return nil, err
	}

	swap := repository.StateSwap{
		EntityType:      input.EntityType,
		EntityID:        entity.ID,
		ExpectedVersion: input.ExpectedVersion,
		NewState:        transition.To,
	}
	if principal.Staff != nil && (input.Event == domain.EventApprove || input.Event == domain.EventReject) {
		now := time.Now()
		swap.ReviewedBy = &principal.Staff.ID
		swap.ReviewedAt = &now
	}

	entry := transitionAuditEntry(principal, entity, input, transition.To)
	updated, err := s.entities.CompareAndSwap(ctx, swap, entry)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("entity", map[string]any{"entity_id": input.EntityID})
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperrors.NewStaleVersion("entity was modified concurrently", map[string]any{
				"expected_version": input.ExpectedVersion,
			})
		}
		return nil, apperrors.MapError(err)
	}

	if updated.Type == domain.EntityIdentityVerification {
		if err := s.vendors.SetKYCStatus(ctx, updated.VendorID, updated.State); err != nil {
			s.logger.Warn("kyc status mirror failed",
				zap.String("vendor_id", updated.VendorID),
				zap.Error(err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTransitionApplied,
		EntityType: updated.Type,
		EntityID:   updated.ID,
		Actor:      actorFor(principal),
		Payload: events.TransitionAppliedPayload{
			Event:         input.Event,
			PreviousState: entity.State,
			NewState:      updated.State,
			Version:       updated.Version,
		},
	})
	return updated, nil
}

// GetEntity fetches an entity, enforcing vendor ownership.
func (s *WorkflowService) GetEntity(ctx context.Context, principal *authz.Principal, entityType domain.EntityType, id string) (*domain.WorkflowEntity, error) {
	if !entityType.Valid() {
		return nil, apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": entityType})
	}
	if err := authz.Authorize(principal, authz.AnyRole()); err != nil {
		return nil, err
	}
	entity, err := s.entities.GetByID(ctx, entityType, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("entity", map[string]any{"entity_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if principal.Vendor != nil && entity.VendorID != principal.Vendor.ID {
		return nil, apperrors.NewNotFound("entity", map[string]any{"entity_id": id})
	}
	if principal.Staff != nil {
		if err := authz.Authorize(principal, authz.WithPermission(authz.PermViewQueue)); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

// ListEntities lists workflow entities. Vendors are scoped to their own
// records; staff listing requires the queue permission.
func (s *WorkflowService) ListEntities(ctx context.Context, principal *authz.Principal, filter repository.WorkflowFilter) ([]domain.WorkflowEntity, error) {
	if !filter.EntityType.Valid() {
		return nil, apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": filter.EntityType})
	}
	if err := authz.Authorize(principal, authz.AnyRole()); err != nil {
		return nil, err
	}
	if principal.Vendor != nil {
		vendorID := principal.Vendor.ID
		filter.VendorID = &vendorID
	} else if err := authz.Authorize(principal, authz.WithPermission(authz.PermViewQueue)); err != nil {
		return nil, err
	}
	entities, err := s.entities.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entities, nil
}

func validateAttributes(entityType domain.EntityType, attrs map[string]any) error {
	switch entityType {
	case domain.EntityInvoice, domain.EntityFundingRequest:
		amount, ok := numericAttribute(attrs, "amount")
		if !ok || amount <= 0 {
			return apperrors.NewValidationError("amount must be a positive number", nil)
		}
	case domain.EntityMilestone:
		title, _ := attrs["title"].(string)
		if strings.TrimSpace(title) == "" {
			return apperrors.NewValidationError("title required", nil)
		}
	}
	return nil
}

func numericAttribute(attrs map[string]any, key string) (float64, bool) {
	switch v := attrs[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func permissionsForEvent(def workflow.Definition, event domain.Event) []authz.Permission {
	var perms []authz.Permission
	seen := map[authz.Permission]struct{}{}
	for _, transitions := range def.Transitions {
		if tr, ok := transitions[event]; ok {
			if _, dup := seen[tr.Requires]; !dup {
				seen[tr.Requires] = struct{}{}
				perms = append(perms, tr.Requires)
			}
		}
	}
	return perms
}

func terminalStates(def workflow.Definition) []domain.State {
	states := make([]domain.State, 0, len(def.Terminal))
	for state := range def.Terminal {
		states = append(states, state)
	}
	return states
}

func transitionAuditEntry(principal *authz.Principal, entity *domain.WorkflowEntity, input TransitionInput, newState domain.State) *domain.AuditEntry {
	entry := &domain.AuditEntry{
		Action:        domain.AuditActionTransition,
		EntityType:    entity.Type,
		EntityID:      entity.ID,
		PreviousState: entity.State,
		NewState:      newState,
		Detail: map[string]any{
			"event": string(input.Event),
		},
	}
	if input.Comment != "" {
		entry.Detail["comment"] = input.Comment
	}
	if principal.Staff != nil {
		entry.ActorType = domain.ActorTypeStaff
		entry.ActorID = &principal.Staff.ID
	} else if principal.Vendor != nil {
		entry.ActorType = domain.ActorTypeVendor
		entry.ActorID = &principal.Vendor.ID
	} else {
		entry.ActorType = domain.ActorTypeSystem
	}
	return entry
}

func actorFor(principal *authz.Principal) events.Actor {
	actor := events.Actor{Type: principal.SubjectType}
	switch {
	case principal.Vendor != nil:
		id := principal.Vendor.ID
		actor.VendorID = &id
	case principal.Staff != nil:
		id := principal.Staff.ID
		actor.StaffID = &id
	}
	return actor
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) {
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
