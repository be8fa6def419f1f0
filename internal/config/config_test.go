package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DATASET_PATH", "DATASET_DSN", "CACHE_TTL_S", "REDIS_ENABLED", "RATE_LIMIT_QPS", "PG_HOST", "PG_PASSWORD"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, filepath.Join("data", "communes.json"), c.DatasetPath)
	assert.Empty(t, c.DatasetDSN)
	assert.False(t, c.CacheEnabled)
	assert.Equal(t, time.Hour, c.CacheTTL)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Equal(t, "postgres://postgres@localhost:5432/geoapi?sslmode=disable", c.ImportDSN())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL_S", "60")
	t.Setenv("RATE_LIMIT_QPS", "-3")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("DATASET_DSN", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	c := FromEnv()
	assert.Equal(t, ":9000", c.Addr)
	assert.True(t, c.CacheEnabled)
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Contains(t, c.ImportDSN(), "postgres:secret@")
	assert.Equal(t, "cache:6380", c.Redis.Addr())

	t.Setenv("DATASET_DSN", "postgres://u@db/x")
	assert.Equal(t, "postgres://u@db/x", FromEnv().ImportDSN())
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEOIP_DB_PATH=/from/file\nADDR=:1\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("ADDR", ":2")
	t.Setenv("GEOIP_DB_PATH", "")
	require.NoError(t, os.Unsetenv("GEOIP_DB_PATH"))
	LoadDotEnv()

	assert.Equal(t, ":2", os.Getenv("ADDR"))
	assert.Equal(t, "/from/file", os.Getenv("GEOIP_DB_PATH"))
}
