package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "arbor.yaml"

// Storage drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the structure of arbor.yaml.
type Config struct {
	Namespace string        `yaml:"namespace" toml:"namespace" json:"namespace"`
	LogLevel  string        `yaml:"log_level" toml:"log_level" json:"log_level"`
	Storage   StorageConfig `yaml:"storage" toml:"storage" json:"storage"`
	HTTP      HTTPConfig    `yaml:"http" toml:"http" json:"http"`
	Metrics   MetricsConfig `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string      `yaml:"driver" toml:"driver" json:"driver"`
	Path   string      `yaml:"path" toml:"path" json:"path"`
	Redis  RedisConfig `yaml:"redis" toml:"redis" json:"redis"`

	// EncryptionKeyEnv names the environment variable holding a base64 32-byte key.
	EncryptionKeyEnv string `yaml:"encryption_key_env" toml:"encryption_key_env" json:"encryption_key_env"`
	// FallbackKeyEnvs name variables holding retired keys, tried in order on read.
	FallbackKeyEnvs []string `yaml:"fallback_key_envs" toml:"fallback_key_envs" json:"fallback_key_envs"`

	// MaskKeys are regular expressions; matching keys are masked before writing.
	MaskKeys []string `yaml:"mask_keys" toml:"mask_keys" json:"mask_keys"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" toml:"addr" json:"addr"`
	Password string        `yaml:"password" toml:"password" json:"password"`
	DB       int           `yaml:"db" toml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" toml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl" json:"ttl"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Namespace: domain.DefaultNamespace,
		LogLevel:  "info",
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   filepath.Join(".arbor", "state"),
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML (or JSON or TOML, by extension) config file over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	c.Namespace = domain.NamespaceOrDefault(c.Namespace)

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverNone
	case DriverNone, DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// EncryptionKeys resolves the configured key variables.
// It returns a nil active key when encryption is not configured.
func (s StorageConfig) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKeyEnv == "" {
		return nil, nil, nil
	}

	active, err = keyFromEnv(s.EncryptionKeyEnv)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range s.FallbackKeyEnvs {
		key, err := keyFromEnv(name)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func keyFromEnv(name string) ([]byte, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("encryption key variable %s is empty", name)
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("encryption key variable %s is not base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key variable %s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}
