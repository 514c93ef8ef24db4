package domain

import "time"

// EntityType enumerates the records governed by the workflow engine.
type EntityType string

const (
	EntityIdentityVerification EntityType = "IDENTITY_VERIFICATION"
	EntityInvoice              EntityType = "INVOICE"
	EntityMilestone            EntityType = "MILESTONE"
	EntityFundingRequest       EntityType = "FUNDING_REQUEST"
)

// Valid reports whether the entity type is known.
func (t EntityType) Valid() bool {
	switch t {
	case EntityIdentityVerification, EntityInvoice, EntityMilestone, EntityFundingRequest:
		return true
	}
	return false
}

// State names a lifecycle state within an entity type's state set.
type State string

const (
	StatePending   State = "PENDING"
	StateSubmitted State = "SUBMITTED"
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
	StateCompleted State = "COMPLETED"
	StateCanceled  State = "CANCELED"
)

// Event names a transition trigger.
type Event string

const (
	EventSubmit   Event = "submit"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// WorkflowEntity is the aggregate for workflow-governed records. The version
// counter increments on every mutation and backs the optimistic-concurrency
// check; state is only ever written through the workflow engine.
type WorkflowEntity struct {
	ID         string
	Type       EntityType
	VendorID   string
	AssigneeID *string
	State      State
	Version    int64
	Attributes map[string]any
	ReviewedBy *string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
