package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStorageContract runs a suite of tests to verify that a Storage implementation
// adheres to the defined interface contract.
func RunStorageContract(t *testing.T, storage Storage) {
	ctx := context.Background()
	key := "contract.test." + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		data := []byte(`{"count":42,"user":{"name":"Guest"}}`)

		err := storage.Save(ctx, key, data)
		require.NoError(t, err, "Save should not return error")

		loaded, err := storage.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.JSONEq(t, string(data), string(loaded))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, key, []byte(`{"count":1}`)))
		require.NoError(t, storage.Save(ctx, key, []byte(`{"count":2}`)))

		loaded, err := storage.Load(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"count":2}`, string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := storage.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := storage.Save(ctx, key, []byte(`{}`))
		require.NoError(t, err)

		err = storage.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = storage.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Load after Delete should return ErrNotFound")

		assert.NoError(t, storage.Delete(ctx, key), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		key1 := key + "-1"
		key2 := key + "-2"
		_ = storage.Save(ctx, key1, []byte(`{}`))
		_ = storage.Save(ctx, key2, []byte(`{}`))

		defer func() {
			_ = storage.Delete(ctx, key1)
			_ = storage.Delete(ctx, key2)
		}()

		keys, err := storage.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key1)
		assert.Contains(t, keys, key2)
	})
}
