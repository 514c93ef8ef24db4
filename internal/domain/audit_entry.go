package domain

import "time"

// ActorType indicates who performed an audited action.
type ActorType string

const (
	ActorTypeVendor ActorType = "VENDOR"
	ActorTypeStaff  ActorType = "STAFF"
	ActorTypeSystem ActorType = "SYSTEM"
)

// AuditAction captures what kind of decision an entry records.
type AuditAction string

const (
	AuditActionTransition AuditAction = "STATE_TRANSITION"
	AuditActionAssignment AuditAction = "ASSIGNMENT"
)

// AuditEntry is an immutable record of a state transition or assignment
// decision. Entries are append-only and never updated or deleted.
type AuditEntry struct {
	ID            string
	ActorType     ActorType
	ActorID       *string
	Action        AuditAction
	EntityType    EntityType
	EntityID      string
	PreviousState State
	NewState      State
	Detail        map[string]any
	CreatedAt     time.Time
}
