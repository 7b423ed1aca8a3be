/*
Package patch implements copy-on-write updates over tree-shaped values.

A tree is a map[string]any whose values may themselves be maps. Set returns a
new root in which every ancestor along the key path is copied and every
untouched branch is shared with the input. The input is never mutated.

	root := map[string]any{"a": 1}
	next := patch.Set(root, patch.ParsePath("b.c"), map[string]any{"x": 0})
	// next == {"a": 1, "b": {"c": {"x": 0}}}, root is unchanged
*/
package patch
