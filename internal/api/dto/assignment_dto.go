package dto

import (
	"time"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// AssignRequest payload for routing entities to a staff member.
type AssignRequest struct {
	EntityIDs []string `json:"entity_ids"`
	StaffID   string   `json:"staff_id"`
	Reassign  bool     `json:"reassign,omitempty"`
}

// AssignmentResponse is the public assignment representation.
type AssignmentResponse struct {
	ID           string     `json:"id"`
	EntityType   string     `json:"entity_type"`
	EntityID     string     `json:"entity_id"`
	StaffID      string     `json:"staff_id"`
	AssignedBy   string     `json:"assigned_by"`
	AssignedAt   time.Time  `json:"assigned_at"`
	SupersededAt *time.Time `json:"superseded_at,omitempty"`
}

// NewAssignmentResponses maps a slice of assignments.
func NewAssignmentResponses(assignments []domain.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, AssignmentResponse{
			ID:           a.ID,
			EntityType:   string(a.EntityType),
			EntityID:     a.EntityID,
			StaffID:      a.StaffID,
			AssignedBy:   a.AssignedBy,
			AssignedAt:   a.AssignedAt,
			SupersededAt: a.SupersededAt,
		})
	}
	return out
}

// AuditEntryResponse is the public audit trail representation.
type AuditEntryResponse struct {
	ID            string         `json:"id"`
	ActorType     string         `json:"actor_type"`
	ActorID       *string        `json:"actor_id,omitempty"`
	Action        string         `json:"action"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	PreviousState string         `json:"previous_state"`
	NewState      string         `json:"new_state"`
	Detail        map[string]any `json:"detail,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewAuditEntryResponses maps a slice of audit entries.
func NewAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:            e.ID,
			ActorType:     string(e.ActorType),
			ActorID:       e.ActorID,
			Action:        string(e.Action),
			EntityType:    string(e.EntityType),
			EntityID:      e.EntityID,
			PreviousState: string(e.PreviousState),
			NewState:      string(e.NewState),
			Detail:        e.Detail,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
