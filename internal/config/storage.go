package config

import (
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

// OpenStorage builds the configured backend wrapped in its middlewares.
// It returns a nil storage for the "none" driver. The returned close
// function releases backend connections and is never nil.
func OpenStorage(cfg StorageConfig) (ports.Storage, func() error, error) {
	noop := func() error { return nil }

	var (
		backend ports.Storage
		closer  = noop
	)
	switch cfg.Driver {
	case DriverNone, "":
		return nil, noop, nil
	case DriverMemory:
		backend = memory.NewStore()
	case DriverFile:
		backend = file.New(cfg.Path)
	case DriverRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		backend = store
		closer = store.Close
	default:
		return nil, noop, (&Config{Storage: cfg}).Validate()
	}

	var mws []middleware.Middleware
	if len(cfg.MaskKeys) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.MaskKeys))
	}

	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		_ = closer()
		return nil, noop, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	return middleware.Chain(backend, mws...), closer, nil
}
