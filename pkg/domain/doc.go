/*
Package domain contains the core domain models shared by the Arbor packages.

It defines the reducer contract, the tree-shaped application state used by the
action-tree adapter and the metadata emitted for every completed action. This
package is kept pure and free of I/O, so every adapter and runtime package can
depend on it.

# Key Entities

  - Reducer: A pure function from the current state to the next state.
  - State: A JSON-serializable, tree-shaped state value keyed by string.
  - ActionEvent: The metadata record {path, payload, reducer} of one completed action.
  - StateDiff: The top-level delta between two states, used by streaming adapters.
*/
package domain
