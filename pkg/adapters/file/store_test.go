package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements Storage
var _ ports.Storage = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStorageContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state.changes", []byte(`{"count":42}`)))

	raw, err := os.ReadFile(filepath.Join(dir, "state.changes.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":42}`, string(raw))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"state.changes"}, keys)
}

func TestFileStore_InvalidKeys(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "..", "../escape", `a\b`, "a/b"} {
		err := store.Save(ctx, key, []byte(`{}`))
		assert.ErrorIs(t, err, domain.ErrInvalidKey, "key %q", key)

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrInvalidKey, "key %q", key)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
