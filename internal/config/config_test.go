package config_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, domain.DefaultNamespace, cfg.Namespace)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
namespace: app.state
log_level: debug
storage:
  driver: redis
  redis:
    addr: redis:6379
    db: 2
    prefix: "app:"
    ttl: 90m
  mask_keys: ["password", "^ssn"]
http:
  addr: ":9090"
metrics:
  enabled: true
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "app.state", cfg.Namespace)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "app:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 90*time.Minute, cfg.Storage.Redis.TTL)
	assert.Equal(t, []string{"password", "^ssn"}, cfg.Storage.MaskKeys)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"namespace":"json.ns","storage":{"driver":"memory"}}`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json.ns", cfg.Namespace)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
namespace = "toml.state"

[storage]
driver = "memory"
mask_keys = ["token"]

[http]
addr = ":7070"
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "toml.state", cfg.Namespace)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"token"}, cfg.Storage.MaskKeys)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_UnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: s3\n"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestOpenStorage_Drivers(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		s, closeFn, err := config.OpenStorage(config.StorageConfig{Driver: config.DriverNone})
		require.NoError(t, err)
		assert.Nil(t, s)
		assert.NoError(t, closeFn())
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		s, closeFn, err := config.OpenStorage(config.StorageConfig{Driver: config.DriverFile, Path: dir})
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, s.Save(ctx, "ns", []byte(`{"a":1}`)))
		_, err = os.Stat(filepath.Join(dir, "ns.json"))
		assert.NoError(t, err)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		s, closeFn, err := config.OpenStorage(config.StorageConfig{
			Driver: config.DriverRedis,
			Redis:  config.RedisConfig{Addr: mr.Addr(), Prefix: "cfg:"},
		})
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, s.Save(ctx, "ns", []byte(`{}`)))
		assert.True(t, mr.Exists("cfg:ns"))
	})
}

func TestOpenStorage_Middlewares(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	t.Setenv("ARBOR_TEST_KEY", base64.StdEncoding.EncodeToString(key))

	dir := t.TempDir()
	s, closeFn, err := config.OpenStorage(config.StorageConfig{
		Driver:           config.DriverFile,
		Path:             dir,
		EncryptionKeyEnv: "ARBOR_TEST_KEY",
		MaskKeys:         []string{"secret"},
	})
	require.NoError(t, err)
	defer closeFn()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "ns", []byte(`{"secret":"s3cr3t","n":1}`)))

	raw, err := os.ReadFile(filepath.Join(dir, "ns.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "__encrypted__")
	assert.NotContains(t, string(raw), "s3cr3t")

	loaded, err := s.Load(ctx, "ns")
	require.NoError(t, err)
	assert.JSONEq(t, `{"secret":"***","n":1}`, string(loaded))
}

func TestOpenStorage_BadKey(t *testing.T) {
	t.Setenv("ARBOR_SHORT_KEY", base64.StdEncoding.EncodeToString([]byte("short")))

	_, _, err := config.OpenStorage(config.StorageConfig{
		Driver:           config.DriverMemory,
		EncryptionKeyEnv: "ARBOR_SHORT_KEY",
	})
	assert.Error(t, err)
}
