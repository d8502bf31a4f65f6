package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 10, cfg.Keyframes.TopN)
	assert.Equal(t, 4, cfg.Keyframes.Interpolation)
	assert.True(t, cfg.Keyframes.KeepOverflow)
	assert.Equal(t, 1000, cfg.Ingest.BatchSize, "unset fields keep their defaults")
}

func TestLoad_Default(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join("testdata", "config_invalid.yaml")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, path)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("storage: [unterminated"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "pebble without path", mutate: func(c *Config) { c.Storage.Path = "" }},
		{name: "negative top n", mutate: func(c *Config) { c.Keyframes.TopN = -1 }},
		{name: "negative interpolation", mutate: func(c *Config) { c.Keyframes.Interpolation = -1 }},
		{name: "interpolation beyond limit", mutate: func(c *Config) { c.Keyframes.Interpolation = 1 << 62 }},
		{name: "zero batch size", mutate: func(c *Config) { c.Ingest.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
