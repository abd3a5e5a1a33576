// Package cache provides the TTL key/value store behind avatar inlining,
// backed by process memory or Redis.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend defines the interface for cache implementations
type Backend interface {
	// Get retrieves a value from the cache
	// Returns (value, found, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache with the given TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources
	Close() error
}

// Config holds cache TTL configuration
type Config struct {
	AvatarTTL     time.Duration
	AvatarFailTTL time.Duration
}

// DefaultConfig returns the default TTLs
func DefaultConfig() Config {
	return Config{
		AvatarTTL:     1 * time.Hour, // avatars rarely change
		AvatarFailTTL: 5 * time.Minute,
	}
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // "memory" or "redis"
	RedisURL string
	Prefix   string
	MaxSize  int
}

// New builds the configured backend. An unknown backend name is an error.
func New(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "memory":
		size := opts.MaxSize
		if size <= 0 {
			size = defaultMaxEntries
		}
		return NewMemoryCache(size, time.Minute), nil
	case "redis":
		return NewRedisCache(ctx, opts.RedisURL, opts.Prefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
