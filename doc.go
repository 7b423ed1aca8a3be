/*
Package arbor is a small event-sourced state container driven by a tree of actions.

You describe state transitions as plain functions organized in a nested tree.
Arbor turns that tree into a callable API: every call publishes a pure reducer
on a namespace, a state machine folds the reducers into a live value, and a
metadata stream reports every invocation for logging, auditing or undo.

# Concept

  - Reducer: a pure function from the current state to the next one.
  - Namespace: names both the channel reducers travel on and the persistence key.
  - Action tree: branches of leaves, each branch with an optional initial fragment.
  - Store: the adapted actions plus the live state, wired on one namespace.

# Usage

	counter := &tree.Branch{
		Initial: domain.State{"count": 0},
		Children: map[string]tree.Node{
			"increment": tree.Leaf(func(args ...any) tree.Result {
				return tree.Immediate(func(s domain.State) domain.State {
					return s.With(s["count"].(int)+1, "count")
				})
			}),
		},
	}

	store := arbor.CreateState(counter, "counter",
		arbor.WithStorage(file.New(".arbor/state")),
	)
	defer store.Close()

	store.State().Subscribe(func(s domain.State) {
		fmt.Println("count:", s["count"])
	})
	_ = store.Call("increment")

State persisted under a namespace wins over the tree's initial state, so a
restarted process resumes where it left off.
*/
package arbor
