package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Adapter is the JSON boundary between state machines and a byte Storage.
type Adapter struct {
	storage ports.Storage
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used to report unreadable snapshots.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New wraps storage in an Adapter.
func New(storage ports.Storage, opts ...Option) *Adapter {
	a := &Adapter{
		storage: storage,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrNop(a.logger)
	return a
}

// Storage returns the underlying storage.
func (a *Adapter) Storage() ports.Storage {
	return a.storage
}

// Set stores value under key as JSON.
func (a *Adapter) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot %q: %w", key, err)
	}
	if err := a.storage.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", key, err)
	}
	return nil
}

// Load decodes the snapshot under key into out.
// Returns domain.ErrNotFound when the key is absent or holds null.
func (a *Adapter) Load(ctx context.Context, key string, out any) error {
	data, err := a.storage.Load(ctx, key)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot %q: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot under key.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	return a.storage.Delete(ctx, key)
}

// Keys lists every key holding a snapshot.
func (a *Adapter) Keys(ctx context.Context) ([]string, error) {
	return a.storage.List(ctx)
}

// Get returns the snapshot under key decoded as S, or def when the key is
// absent, holds null or cannot be decoded. A nil adapter always yields def.
func Get[S any](ctx context.Context, a *Adapter, key string, def S) S {
	if a == nil {
		return def
	}

	var out S
	err := a.Load(ctx, key, &out)
	switch {
	case err == nil:
		return out
	case errors.Is(err, domain.ErrNotFound):
		return def
	default:
		a.logger.Warn("Ignoring unreadable snapshot", "key", key, "err", err)
		return def
	}
}
