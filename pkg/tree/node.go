package tree

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Node is an element of an action tree: a Leaf, a *Branch or a Value.
type Node interface {
	node()
}

// Leaf produces the reducer for one invocation.
type Leaf func(args ...any) Result

// Branch groups named children and carries an optional initial state fragment.
// The reserved key "initial" is ignored in Children.
type Branch struct {
	Initial  domain.State
	Children map[string]Node
}

// Value is copied through to the adapted tree unchanged.
type Value struct {
	V any
}

func (Leaf) node()    {}
func (*Branch) node() {}
func (Value) node()   {}

// Result is what a leaf returns: a reducer now, a reducer later, or nothing.
type Result struct {
	reducer  domain.Reducer[domain.State]
	deferred func(ctx context.Context) (domain.Reducer[domain.State], error)
}

// Immediate wraps a reducer that is dispatched as soon as the leaf returns.
func Immediate(r domain.Reducer[domain.State]) Result {
	return Result{reducer: r}
}

// Deferred wraps a computation that yields the reducer later.
// It runs on its own goroutine; the invoking Action does not wait for it.
func Deferred(fn func(ctx context.Context) (domain.Reducer[domain.State], error)) Result {
	return Result{deferred: fn}
}

// IsZero reports whether the result carries neither a reducer nor a computation.
func (r Result) IsZero() bool {
	return r.reducer == nil && r.deferred == nil
}

// FromMap builds a Branch from a dynamic description.
//
// The "initial" key must hold a map and becomes Branch.Initial. Functions with
// the Leaf signature become leaves, nested maps become branches, existing
// Nodes are kept and everything else becomes a Value. Functions of any other
// signature are rejected.
func FromMap(m map[string]any) (*Branch, error) {
	return fromMap(m, nil)
}

func fromMap(m map[string]any, path []string) (*Branch, error) {
	b := &Branch{Children: make(map[string]Node, len(m))}

	for key, v := range m {
		at := append(append([]string{}, path...), key)

		if key == domain.KeyInitial {
			initial, ok := asState(v)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be a map, got %T", domain.ErrInvalidNode, JoinPath(at), v)
			}
			b.Initial = initial
			continue
		}

		switch n := v.(type) {
		case Node:
			b.Children[key] = n
		case func(...any) Result:
			b.Children[key] = Leaf(n)
		case map[string]any:
			child, err := fromMap(n, at)
			if err != nil {
				return nil, err
			}
			b.Children[key] = child
		case domain.State:
			child, err := fromMap(n, at)
			if err != nil {
				return nil, err
			}
			b.Children[key] = child
		default:
			if isFunc(v) {
				return nil, fmt.Errorf("%w: %q has unsupported signature %T", domain.ErrInvalidNode, JoinPath(at), v)
			}
			b.Children[key] = Value{V: v}
		}
	}
	return b, nil
}

func asState(v any) (domain.State, bool) {
	switch s := v.(type) {
	case nil:
		return domain.State{}, true
	case domain.State:
		return s, true
	case map[string]any:
		return domain.State(s), true
	default:
		return nil, false
	}
}
