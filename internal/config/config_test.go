package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"wss://yabu.me"}, cfg.Relays)
	assert.Equal(t, "sequential", cfg.RelayStrategy)
	assert.Equal(t, 10*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 25*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.NIP05Timeout)
	assert.Equal(t, int64(1<<20), cfg.AvatarMaxBytes)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, "card:", cfg.CachePrefix)
	assert.Equal(t, time.Hour, cfg.AvatarTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.AllowPrivateHosts)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CARD_RELAYS", "wss://nos.lol, wss://relay.damus.io")
	t.Setenv("CARD_RELAY_STRATEGY", "Race")
	t.Setenv("CARD_RELAY_TIMEOUT", "3s")
	t.Setenv("CARD_ALLOW_PRIVATE_HOSTS", "true")
	t.Setenv("CARD_CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://nos.lol", "wss://relay.damus.io"}, cfg.Relays)
	assert.Equal(t, "race", cfg.RelayStrategy)
	assert.Equal(t, 3*time.Second, cfg.RelayTimeout)
	assert.True(t, cfg.AllowPrivateHosts)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_PrefixedWinsOverBareEnv(t *testing.T) {
	t.Setenv("CARD_ADDR", "127.0.0.1:7000")
	t.Setenv("PORT", "9000")
	t.Setenv("CARD_LOG_LEVEL", "warn")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
relays:
  - wss://a.example
  - wss://b.example
relay_strategy: race
avatar_ttl: 2h
`), 0o644))
	t.Setenv("CARD_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://a.example", "wss://b.example"}, cfg.Relays)
	assert.Equal(t, "race", cfg.RelayStrategy)
	assert.Equal(t, 2*time.Hour, cfg.AvatarTTL)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CARD_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CARD_RELAY_TIMEOUT", "0s")
	t.Setenv("CARD_CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")
	t.Setenv("CARD_REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "relay_timeout must be positive")
	assert.ErrorContains(t, err, "redis_url is required")
}

func TestLoad_RequestTimeout(t *testing.T) {
	t.Setenv("CARD_REQUEST_TIMEOUT", "45s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)

	t.Setenv("CARD_REQUEST_TIMEOUT", "-1s")
	_, err = Load()
	assert.ErrorContains(t, err, "request_timeout must be positive")
}
