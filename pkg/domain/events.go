package domain

import "time"

// ActionEvent is the metadata emitted once per completed action invocation.
// It is emitted after the reducer has been dispatched, in completion order.
type ActionEvent struct {
	// ID correlates this invocation across logs and undo stacks.
	ID string `json:"id"`

	// Namespace is the channel the reducer was dispatched on.
	Namespace string `json:"namespace"`

	// Path holds the keys from the root of the tree to the invoked leaf.
	Path []string `json:"path"`

	// Payload holds the arguments passed to the leaf, in order.
	Payload []any `json:"payload"`

	// Reducer is the value produced by the invocation.
	Reducer Reducer[State] `json:"-"`

	Timestamp time.Time `json:"timestamp"`
}
