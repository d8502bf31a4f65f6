package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/davidvella/barrace/keyframe"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
)

// ErrInvalidConfig is returned for configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Storage   Storage   `yaml:"storage"`
	Keyframes Keyframes `yaml:"keyframes"`
	Ingest    Ingest    `yaml:"ingest"`
}

type Storage struct {
	Backend      string `yaml:"backend"`
	Path         string `yaml:"path"`
	CacheSize    int64  `yaml:"cache_size"`
	MaxOpenFiles int    `yaml:"max_open_files"`
	Sync         bool   `yaml:"sync"`
}

type Keyframes struct {
	TopN          int  `yaml:"top_n"`
	Interpolation int  `yaml:"interpolation"`
	KeepOverflow  bool `yaml:"keep_overflow"`
}

type Ingest struct {
	BatchSize int `yaml:"batch_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:      BackendPebble,
			Path:         ".barrace/db",
			CacheSize:    8 << 20,
			MaxOpenFiles: 500,
		},
		Ingest: Ingest{
			BatchSize: 1000,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPebble:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for the pebble backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q is not one of %s, %s",
			ErrInvalidConfig, c.Storage.Backend, BackendMemory, BackendPebble)
	}
	if c.Keyframes.TopN < 0 {
		return fmt.Errorf("%w: keyframes.top_n must not be negative", ErrInvalidConfig)
	}
	if c.Keyframes.Interpolation < 0 || c.Keyframes.Interpolation > keyframe.MaxInterpolation {
		return fmt.Errorf("%w: keyframes.interpolation must be between 0 and %d",
			ErrInvalidConfig, keyframe.MaxInterpolation)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("%w: ingest.batch_size must be positive", ErrInvalidConfig)
	}
	return nil
}
