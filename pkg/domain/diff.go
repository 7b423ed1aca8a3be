package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// Namespace is always present to identify the target.
	Namespace string `json:"namespace"`

	// Changes contains only changed, added or deleted top-level keys.
	// For deletions, the key is present with a nil value.
	// Clients should merge these updates into their local state.
	Changes map[string]any `json:"changes,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(namespace string, oldState, newState State) *StateDiff {
	delta := make(map[string]any)

	for k, newVal := range newState {
		oldVal, exists := oldState[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range oldState {
		if _, exists := newState[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}

	return &StateDiff{
		Namespace: namespace,
		Changes:   delta,
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || len(d.Changes) == 0
}
