package reconcile

import "sort"

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDeactivate soft deletes a persisted row.
	ActionDeactivate ActionType = "deactivate"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the entity identifier.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// PlanRemovals returns a deactivate action for every active key absent
// from seen, sorted by key for deterministic output.
func PlanRemovals(active []string, seen map[string]struct{}) []Action {
	var actions []Action
	for _, key := range active {
		if _, ok := seen[key]; ok {
			continue
		}
		actions = append(actions, Action{
			Type:   ActionDeactivate,
			Key:    key,
			Reason: "active in database but absent from the current fetch",
		})
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Key < actions[j].Key
	})
	return actions
}
