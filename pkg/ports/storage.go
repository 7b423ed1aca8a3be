package ports

import (
	"context"
)

// Storage persists raw JSON snapshots keyed by namespace.
// This allows state to resume where the user left off.
type Storage interface {
	// Save persists data under key, replacing any previous snapshot.
	Save(ctx context.Context, key string, data []byte) error

	// Load retrieves the snapshot stored under key.
	// Returns domain.ErrNotFound if the key holds nothing.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the snapshot under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key currently holding a snapshot.
	List(ctx context.Context) ([]string, error)
}
