package tree

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// Attach returns a copy of t with node adapted and mounted at path.
//
// The new tree shares t's namespace, action stream and wait group. Missing
// intermediate keys, and keys holding something other than a branch, become
// empty branches. Every branch copied along the path gets the attached initial
// fragment patched into its own initial. An empty path merges node into t.
// t itself is never modified.
func Attach(t *Tree, path []string, node *Branch) *Tree {
	full := append(t.Path(), path...)
	sub := t.env.adapt(node, full)

	if len(path) == 0 {
		return merge(t, sub)
	}
	return graft(t, path, sub)
}

func graft(t *Tree, path []string, sub *Tree) *Tree {
	cp := t.copy()
	cp.initial = cp.initial.With(sub.initial, path...)

	key := path[0]
	if len(path) == 1 {
		cp.members[key] = sub
		return cp
	}

	next, ok := cp.members[key].(*Tree)
	if !ok {
		next = &Tree{
			env:     t.env,
			path:    append(t.Path(), key),
			initial: domain.State{},
			members: make(map[string]any),
		}
	}
	cp.members[key] = graft(next, path[1:], sub)
	return cp
}

func merge(t *Tree, sub *Tree) *Tree {
	cp := t.copy()
	cp.initial = cp.initial.Clone()
	for k, v := range sub.initial {
		cp.initial[k] = v
	}
	for k, m := range sub.members {
		cp.members[k] = m
	}
	return cp
}

func (t *Tree) copy() *Tree {
	members := make(map[string]any, len(t.members)+1)
	for k, m := range t.members {
		members[k] = m
	}
	return &Tree{
		env:     t.env,
		path:    t.path,
		initial: t.initial,
		members: members,
	}
}
