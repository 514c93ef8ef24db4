package domain

import "time"

// Assignment records the routing of a work item to a staff member. An entity
// carries at most one active assignment; reassignment supersedes rather than
// deletes the prior record.
type Assignment struct {
	ID           string
	EntityType   EntityType
	EntityID     string
	StaffID      string
	AssignedBy   string
	AssignedAt   time.Time
	SupersededAt *time.Time
}

// Active reports whether the assignment is still in effect.
func (a *Assignment) Active() bool {
	return a != nil && a.SupersededAt == nil
}
