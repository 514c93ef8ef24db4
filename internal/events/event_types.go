package events

import (
	"time"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEntityCreated     EventType = "entity_created"
	EventTransitionApplied EventType = "transition_applied"
	EventWorkItemAssigned  EventType = "work_item_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type     domain.SubjectType `json:"type"`
	VendorID *string            `json:"vendor_id,omitempty"`
	StaffID  *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Actor      Actor             `json:"actor"`
	Timestamp  time.Time         `json:"timestamp"`
	Payload    interface{}       `json:"payload"`
}

// EntityCreatedPayload payload.
type EntityCreatedPayload struct {
	VendorID string       `json:"vendor_id"`
	State    domain.State `json:"state"`
}

// TransitionAppliedPayload payload.
type TransitionAppliedPayload struct {
	Event         domain.Event `json:"event"`
	PreviousState domain.State `json:"previous_state"`
	NewState      domain.State `json:"new_state"`
	Version       int64        `json:"version"`
}

// WorkItemAssignedPayload payload.
type WorkItemAssignedPayload struct {
	StaffID      string  `json:"staff_id"`
	SupersededID *string `json:"superseded_assignment_id,omitempty"`
}
