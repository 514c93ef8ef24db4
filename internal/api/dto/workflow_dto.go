package dto

import (
	"time"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// CreateEntityRequest payload for submitting a new workflow record.
type CreateEntityRequest struct {
	Attributes map[string]any `json:"attributes"`
}

// TransitionRequest payload for applying a workflow event.
type TransitionRequest struct {
	Event           string `json:"event"`
	ExpectedVersion int64  `json:"expected_version"`
	Comment         string `json:"comment,omitempty"`
}

// EntityResponse is the public workflow entity representation.
type EntityResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	VendorID   string         `json:"vendor_id"`
	AssigneeID *string        `json:"assignee_id,omitempty"`
	State      string         `json:"state"`
	Version    int64          `json:"version"`
	Attributes map[string]any `json:"attributes"`
	ReviewedBy *string        `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewEntityResponse maps a workflow entity to its response shape.
func NewEntityResponse(e *domain.WorkflowEntity) EntityResponse {
	return EntityResponse{
		ID:         e.ID,
		Type:       string(e.Type),
		VendorID:   e.VendorID,
		AssigneeID: e.AssigneeID,
		State:      string(e.State),
		Version:    e.Version,
		Attributes: e.Attributes,
		ReviewedBy: e.ReviewedBy,
		ReviewedAt: e.ReviewedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// NewEntityResponses maps a slice of workflow entities.
func NewEntityResponses(entities []domain.WorkflowEntity) []EntityResponse {
	out := make([]EntityResponse, 0, len(entities))
	for i := range entities {
		out = append(out, NewEntityResponse(&entities[i]))
	}
	return out
}
