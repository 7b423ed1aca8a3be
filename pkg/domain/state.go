package domain

import "github.com/aretw0/arbor/pkg/patch"

// Reducer maps the current state to the next state.
// Reducers must be pure: they never mutate their input.
type Reducer[S any] func(S) S

// State is the tree-shaped application state used by action trees.
// Nested branches are themselves States, or plain maps after a JSON round-trip.
type State map[string]any

// AsMap exposes the state as a plain map.
func (s State) AsMap() map[string]any {
	return map[string]any(s)
}

// Clone deep-copies the map structure of the state.
func (s State) Clone() State {
	return patch.Clone(s)
}

// With returns a copy of the state with value stored at the given key path.
// The receiver is not modified and untouched branches are shared.
func (s State) With(value any, path ...string) State {
	return patch.Set(s, path, value)
}

// Lookup returns the value at the given key path.
func (s State) Lookup(path ...string) (any, bool) {
	return patch.Get(s, path)
}

// Branch returns the nested state stored at key, or an empty State.
func (s State) Branch(key string) State {
	switch v := s[key].(type) {
	case State:
		return v
	case map[string]any:
		return State(v)
	default:
		return State{}
	}
}
