/*
Package tree turns a declarative tree of reducer-producing functions into an
auto-dispatching action API.

A tree is built from three node kinds:

  - Leaf: a function returning a Result, either Immediate(reducer) or
    Deferred(fn) for reducers computed asynchronously.
  - *Branch: named children plus an optional Initial state fragment.
  - Value: any other value, copied through unchanged.

Adapt walks the tree once. Every leaf becomes an Action that dispatches its
reducer on the tree's namespace and then emits a domain.ActionEvent on the one
stream shared by the whole tree. Every branch's Initial is merged with the
Initial of its descendants, nested under their keys.

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

	actions := tree.Adapt(counter, "counter")
	actions.Call("increment")

Attach grafts new branches onto an adapted tree without mutating it. The
result shares the original's stream and namespace.
*/
package tree
