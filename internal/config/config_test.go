package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "findata.db", cfg.Store.Path)
	assert.Equal(t, 7, cfg.Cache.MaxAgeDays)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.MaxAge())
	assert.Equal(t, 0.1, cfg.Verify.TolerancePct)
	assert.Equal(t, 10.0, cfg.Source.RatePerSec)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout())
	assert.Equal(t, "https://data.sec.gov", cfg.Source.BaseURL)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: sqlite
  path: /tmp/custom.db
cache:
  max_age_days: 1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
	assert.Equal(t, 24*time.Hour, cfg.Cache.MaxAge())
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.1, cfg.Verify.TolerancePct)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FINDATA_STORE_PATH", "/tmp/env.db")
	t.Setenv("FINDATA_CACHE_MAX_AGE_DAYS", "14")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Store.Path)
	assert.Equal(t, 14, cfg.Cache.MaxAgeDays)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("FINDATA_STORE_DRIVER", "mysql")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("FINDATA_STORE_DRIVER", "postgres")
	t.Setenv("FINDATA_STORE_DSN", "")
	_, err := Load("")
	require.Error(t, err)
}
