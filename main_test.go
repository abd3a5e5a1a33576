package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostr-card/internal/config"
)

func TestServerWriteTimeoutOutlastsBuild(t *testing.T) {
	cfg := &config.Config{
		Relays:         []string{"wss://a.example.com", "wss://b.example.com", "wss://c.example.com"},
		RelayTimeout:   10 * time.Second,
		RequestTimeout: 25 * time.Second,
	}
	assert.Greater(t, serverWriteTimeout(cfg), cfg.RequestTimeout)
}

func TestNewApp_WiresRequestLimits(t *testing.T) {
	cfg := &config.Config{
		Relays:            []string{"wss://relay.example.com/", "nope"},
		RelayStrategy:     "race",
		RelayTimeout:      time.Second,
		RequestTimeout:    3 * time.Second,
		NIP05Timeout:      time.Second,
		AvatarTimeout:     time.Second,
		AvatarMaxBytes:    1 << 10,
		AllowPrivateHosts: true,
		CacheBackend:      "memory",
		CachePrefix:       "card:",
		AvatarTTL:         time.Minute,
		AvatarFailTTL:     time.Minute,
	}
	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.backend.Close()

	assert.Equal(t, []string{"wss://relay.example.com"}, a.cards.relays)
	assert.Equal(t, "race", a.cards.strategy)
	assert.Equal(t, 3*time.Second, a.cards.timeout)
	assert.True(t, a.cards.allowPrivateHosts)
}
