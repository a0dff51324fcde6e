package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every SETGROUPER_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(envName(key), "")
	}
}

func envName(key string) string {
	out := []byte(EnvPrefix + "_")
	for _, c := range []byte(key) {
		switch {
		case c == '.':
			out = append(out, '_')
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// TestLoadDefaults verifies the defaults applied when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, BackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, "setgrouper-cache.db", cfg.Cache.SQLitePath)
	assert.Equal(t, 96*time.Hour, cfg.Cache.Expiration)
	assert.Equal(t, 50, cfg.Cache.RetentionCount)
	assert.Zero(t, cfg.Cache.MaxBytes)
	assert.Equal(t, "https://api.scryfall.com", cfg.Scryfall.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Scryfall.Timeout)
	assert.InDelta(t, 10.0, cfg.Scryfall.RequestsPerSecond, 0.001)
	assert.Equal(t, 2, cfg.Scryfall.MaxRetries)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.True(t, cfg.Pipeline.ExcludeZeroPrice)
}

// TestLoadFromEnv verifies that environment variables override defaults.
func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SETGROUPER_SERVER_PORT", "9090")
	t.Setenv("SETGROUPER_SERVER_LOG_LEVEL", "debug")
	t.Setenv("SETGROUPER_CACHE_BACKEND", "redis")
	t.Setenv("SETGROUPER_CACHE_REDIS_ADDR", "localhost:6379")
	t.Setenv("SETGROUPER_CACHE_EXPIRATION", "48h")
	t.Setenv("SETGROUPER_CACHE_RETENTION_COUNT", "10")
	t.Setenv("SETGROUPER_PIPELINE_CONCURRENCY", "4")
	t.Setenv("SETGROUPER_PIPELINE_EXCLUDE_ZERO_PRICE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 48*time.Hour, cfg.Cache.Expiration)
	assert.Equal(t, 10, cfg.Cache.RetentionCount)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.False(t, cfg.Pipeline.ExcludeZeroPrice)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "setgrouper.yaml")
	content := `
server:
  port: 7070
cache:
  backend: memory
  max_bytes: 4096
scryfall:
  requests_per_second: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SETGROUPER_SERVER_PORT", "7171")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7171, cfg.Server.Port, "env overrides file")
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.EqualValues(t, 4096, cfg.Cache.MaxBytes)
	assert.InDelta(t, 5.0, cfg.Scryfall.RequestsPerSecond, 0.001)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "invalid port number",
			envVars: map[string]string{"SETGROUPER_SERVER_PORT": "999999"},
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{"SETGROUPER_SERVER_LOG_LEVEL": "invalid-level"},
		},
		{
			name:    "unknown backend",
			envVars: map[string]string{"SETGROUPER_CACHE_BACKEND": "dynamo"},
		},
		{
			name:    "postgres without database url",
			envVars: map[string]string{"SETGROUPER_CACHE_BACKEND": "postgres"},
		},
		{
			name:    "redis without address",
			envVars: map[string]string{"SETGROUPER_CACHE_BACKEND": "redis"},
		},
		{
			name:    "concurrency above bound",
			envVars: map[string]string{"SETGROUPER_PIPELINE_CONCURRENCY": "9"},
		},
		{
			name:    "zero rate",
			envVars: map[string]string{"SETGROUPER_SCRYFALL_REQUESTS_PER_SECOND": "0"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg)
		})
	}
}
