package workflow

import (
	"fmt"

	"github.com/spec-kit/vendor-finance/internal/authz"
	"github.com/spec-kit/vendor-finance/internal/domain"
)

// Transition is a single table entry: the target state and the permission the
// acting principal must hold.
type Transition struct {
	To       domain.State
	Requires authz.Permission
}

// Definition is the finite-state machine for one entity type.
type Definition struct {
	Initial     domain.State
	Terminal    map[domain.State]struct{}
	Transitions map[domain.State]map[domain.Event]Transition
}

var definitions = map[domain.EntityType]Definition{
	domain.EntityIdentityVerification: {
		Initial:  domain.StatePending,
		Terminal: terminal(domain.StateApproved, domain.StateRejected),
		Transitions: map[domain.State]map[domain.Event]Transition{
			domain.StatePending: {
				domain.EventSubmit: {To: domain.StateSubmitted, Requires: authz.PermSubmitKYC},
			},
			domain.StateSubmitted: {
				domain.EventApprove: {To: domain.StateApproved, Requires: authz.PermReviewKYC},
				domain.EventReject:  {To: domain.StateRejected, Requires: authz.PermReviewKYC},
			},
		},
	},
	domain.EntityInvoice: {
		Initial:  domain.StatePending,
		Terminal: terminal(domain.StateApproved, domain.StateRejected),
		Transitions: map[domain.State]map[domain.Event]Transition{
			domain.StatePending: {
				domain.EventApprove: {To: domain.StateApproved, Requires: authz.PermApproveInvoice},
				domain.EventReject:  {To: domain.StateRejected, Requires: authz.PermApproveInvoice},
			},
		},
	},
	domain.EntityMilestone: {
		Initial:  domain.StatePending,
		Terminal: terminal(domain.StateCompleted, domain.StateCanceled),
		Transitions: map[domain.State]map[domain.Event]Transition{
			domain.StatePending: {
				domain.EventComplete: {To: domain.StateCompleted, Requires: authz.PermUpdateMilestone},
				domain.EventCancel:   {To: domain.StateCanceled, Requires: authz.PermUpdateMilestone},
			},
		},
	},
	domain.EntityFundingRequest: {
		Initial:  domain.StatePending,
		Terminal: terminal(domain.StateApproved, domain.StateRejected),
		Transitions: map[domain.State]map[domain.Event]Transition{
			domain.StatePending: {
				domain.EventApprove: {To: domain.StateApproved, Requires: authz.PermCosignFundingRequest},
				domain.EventReject:  {To: domain.StateRejected, Requires: authz.PermCosignFundingRequest},
			},
		},
	},
}

func terminal(states ...domain.State) map[domain.State]struct{} {
	set := make(map[domain.State]struct{}, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}

func init() {
	if err := validateDefinitions(); err != nil {
		panic(err)
	}
}

func validateDefinitions() error {
	for _, entityType := range []domain.EntityType{
		domain.EntityIdentityVerification,
		domain.EntityInvoice,
		domain.EntityMilestone,
		domain.EntityFundingRequest,
	} {
		def, ok := definitions[entityType]
		if !ok {
			return fmt.Errorf("workflow: no definition for %s", entityType)
		}
		if def.Initial == "" {
			return fmt.Errorf("workflow: %s has no initial state", entityType)
		}
		if _, isTerminal := def.Terminal[def.Initial]; isTerminal {
			return fmt.Errorf("workflow: %s initial state is terminal", entityType)
		}
		if len(def.Terminal) == 0 {
			return fmt.Errorf("workflow: %s has no terminal states", entityType)
		}
		for from, events := range def.Transitions {
			if _, isTerminal := def.Terminal[from]; isTerminal {
				return fmt.Errorf("workflow: %s has outgoing transitions from terminal state %s", entityType, from)
			}
			for event, tr := range events {
				if tr.To == "" {
					return fmt.Errorf("workflow: %s %s/%s has no target state", entityType, from, event)
				}
				if tr.Requires == "" {
					return fmt.Errorf("workflow: %s %s/%s has no required permission", entityType, from, event)
				}
			}
		}
	}
	return nil
}

// Lookup returns the state machine definition for an entity type.
func Lookup(entityType domain.EntityType) (Definition, bool) {
	def, ok := definitions[entityType]
	return def, ok
}

// InitialState returns the entry state for an entity type.
func InitialState(entityType domain.EntityType) (domain.State, bool) {
	def, ok := definitions[entityType]
	if !ok {
		return "", false
	}
	return def.Initial, true
}

// Next resolves the transition for (from, event), if the table defines one.
func (d Definition) Next(from domain.State, event domain.Event) (Transition, bool) {
	tr, ok := d.Transitions[from][event]
	return tr, ok
}

// IsTerminal reports whether the state has no outgoing transitions.
func (d Definition) IsTerminal(state domain.State) bool {
	_, ok := d.Terminal[state]
	return ok
}
