package tree

import (
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/patch"
	"github.com/aretw0/arbor/pkg/stream"
)

// Action is an adapted leaf. Calling it dispatches the leaf's reducer and
// returns without waiting for deferred results.
type Action func(args ...any)

// Tree is an adapted branch. It is immutable once built; Attach returns a new Tree.
type Tree struct {
	env     *env
	path    []string
	initial domain.State

	// members holds Action, *Tree or Value entries.
	members map[string]any
}

// Initial returns the merged initial state of this branch and its descendants.
func (t *Tree) Initial() domain.State {
	return t.initial
}

// Stream returns the action stream shared by every branch of the tree.
func (t *Tree) Stream() *stream.Subject[domain.ActionEvent] {
	return t.env.emitter
}

// Namespace returns the namespace reducers are dispatched on.
func (t *Tree) Namespace() string {
	return t.env.namespace
}

// Path returns the keys from the root to this branch.
func (t *Tree) Path() []string {
	return append([]string{}, t.path...)
}

// Action resolves an action by its key path relative to this branch.
func (t *Tree) Action(path ...string) (Action, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := t
	for _, key := range path[:len(path)-1] {
		next, ok := cur.members[key].(*Tree)
		if !ok {
			return nil, false
		}
		cur = next
	}
	a, ok := cur.members[path[len(path)-1]].(Action)
	return a, ok
}

// Branch returns the adapted child branch under key.
func (t *Tree) Branch(key string) (*Tree, bool) {
	sub, ok := t.members[key].(*Tree)
	return sub, ok
}

// Value returns the passthrough value under key.
func (t *Tree) Value(key string) (any, bool) {
	v, ok := t.members[key].(Value)
	return v.V, ok
}

// Keys lists the member keys of this branch in lexical order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.members))
	for k := range t.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Call invokes the action at a dotted path such as "todos.add".
func (t *Tree) Call(path string, args ...any) error {
	a, ok := t.Action(ParsePath(path)...)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrActionNotFound, path)
	}
	a(args...)
	return nil
}

// Walk visits every action below this branch, depth first in key order.
// Paths are absolute, as they appear in Action Events.
func (t *Tree) Walk(fn func(path []string, a Action)) {
	for _, key := range t.Keys() {
		switch m := t.members[key].(type) {
		case Action:
			fn(append(t.Path(), key), m)
		case *Tree:
			m.Walk(fn)
		}
	}
}

// Wait blocks until every deferred invocation started so far has completed.
// Attached trees share the wait group of the tree they were attached to.
// Callers must have stopped invoking actions before calling Wait.
func (t *Tree) Wait() {
	t.env.inflight.Wait()
}

// ParsePath splits dot notation into keys, dropping empty segments.
func ParsePath(path string) []string {
	return patch.ParsePath(path)
}

// JoinPath renders keys in dot notation.
func JoinPath(keys []string) string {
	return patch.JoinPath(keys)
}
