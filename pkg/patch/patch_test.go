package patch_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, patch.ParsePath("a.b.c"))
	assert.Equal(t, []string{"user"}, patch.ParsePath("user"))
	assert.Equal(t, []string{"a", "b"}, patch.ParsePath(".a..b."))
	assert.Empty(t, patch.ParsePath(""))
	assert.Equal(t, "a.b", patch.JoinPath([]string{"a", "b"}))
}

func TestSet_CreatesIntermediateBranches(t *testing.T) {
	root := map[string]any{"a": 1}

	next := patch.Set(root, []string{"b", "c"}, map[string]any{"x": 0})

	assert.Equal(t, map[string]any{
		"a": 1,
		"b": map[string]any{"c": map[string]any{"x": 0}},
	}, next)
	assert.Equal(t, map[string]any{"a": 1}, root, "input must not be mutated")
}

func TestSet_SharesUntouchedSiblings(t *testing.T) {
	sibling := map[string]any{"keep": true}
	root := map[string]any{
		"sibling": sibling,
		"data":    map[string]any{"value": 0},
	}

	next := patch.Set(root, []string{"data", "meta"}, map[string]any{"ts": 0})

	nextSibling := next["sibling"].(map[string]any)
	nextSibling["probe"] = 1
	assert.Equal(t, 1, sibling["probe"], "untouched branch should be shared, not copied")

	assert.Equal(t, map[string]any{"value": 0}, root["data"])
	assert.Equal(t, map[string]any{"value": 0, "meta": map[string]any{"ts": 0}}, next["data"])
}

func TestSet_ReplacesNonMapIntermediate(t *testing.T) {
	root := map[string]any{"a": 5}

	next := patch.Set(root, []string{"a", "b"}, "v")

	assert.Equal(t, map[string]any{"a": map[string]any{"b": "v"}}, next)
}

func TestSet_EmptyPath(t *testing.T) {
	root := map[string]any{"a": 1}

	assert.Equal(t, map[string]any{"z": 2}, patch.Set(root, nil, map[string]any{"z": 2}))
	assert.Equal(t, root, patch.Set(root, nil, 42))
}

func TestGet(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 2}}

	v, ok := patch.Get(root, []string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = patch.Get(root, []string{"a", "missing"})
	assert.False(t, ok)

	_, ok = patch.Get(root, []string{"a", "b", "c"})
	assert.False(t, ok)

	v, ok = patch.Get(root, nil)
	require.True(t, ok)
	assert.Equal(t, root, v)
}

func TestDelete(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 2, "c": 3}}

	next := patch.Delete(root, []string{"a", "b"})

	assert.Equal(t, map[string]any{"a": map[string]any{"c": 3}}, next)
	assert.Equal(t, map[string]any{"b": 2, "c": 3}, root["a"])
	assert.Equal(t, root, patch.Delete(root, []string{"missing"}))
}

func TestClone(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1}}

	c := patch.Clone(root)
	c["a"].(map[string]any)["b"] = 2

	assert.Equal(t, 1, root["a"].(map[string]any)["b"])
	assert.Nil(t, patch.Clone[map[string]any](nil))
}

type tree map[string]any

func TestSet_NamedMapType(t *testing.T) {
	root := tree{"a": 1}

	next := patch.Set(root, []string{"b", "c"}, tree{"x": 0})

	assert.Equal(t, tree{"a": 1, "b": tree{"c": tree{"x": 0}}}, next)
}

func TestSet_NamedMapTypeThroughPlainMap(t *testing.T) {
	root := tree{"b": map[string]any{"keep": true}}

	next := patch.Set(root, []string{"b", "c"}, 1)

	assert.Equal(t, tree{"b": tree{"keep": true, "c": 1}}, next)
}
