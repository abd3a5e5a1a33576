// Package config loads service settings from the environment and an optional
// config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every setting's environment variable.
const EnvPrefix = "CARD"

// DefaultRelays is used when no relays are configured.
var DefaultRelays = []string{"wss://yabu.me"}

// Config is the resolved service configuration.
type Config struct {
	Addr string

	Relays        []string
	RelayStrategy string
	RelayTimeout  time.Duration

	// RequestTimeout caps a whole card build, relay fallback included.
	RequestTimeout time.Duration

	NIP05Timeout      time.Duration
	AvatarTimeout     time.Duration
	AvatarMaxBytes    int64
	AllowPrivateHosts bool

	CacheBackend  string
	RedisURL      string
	CachePrefix   string
	AvatarTTL     time.Duration
	AvatarFailTTL time.Duration

	LogLevel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("relays", DefaultRelays)
	v.SetDefault("relay_strategy", "sequential")
	v.SetDefault("relay_timeout", 10*time.Second)
	v.SetDefault("request_timeout", 25*time.Second)
	v.SetDefault("nip05_timeout", 5*time.Second)
	v.SetDefault("avatar_timeout", 5*time.Second)
	v.SetDefault("avatar_max_bytes", int64(1<<20))
	v.SetDefault("allow_private_hosts", false)
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("cache_prefix", "card:")
	v.SetDefault("avatar_ttl", time.Hour)
	v.SetDefault("avatar_fail_ttl", 5*time.Minute)
	v.SetDefault("log_level", "info")
}

// New returns a viper instance wired to CARD_* environment variables, with
// the unprefixed PORT, LOG_LEVEL and REDIS_URL accepted as fallbacks.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.BindEnv("config", EnvPrefix+"_CONFIG")
	v.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("redis_url", EnvPrefix+"_REDIS_URL", "REDIS_URL")
	setDefaults(v)
	return v
}

// Load reads configuration from the environment and, when CARD_CONFIG names
// a file, from that file (any format viper understands).
func Load() (*Config, error) {
	return FromViper(New())
}

// FromViper resolves and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Addr:              v.GetString("addr"),
		Relays:            stringList(v, "relays"),
		RelayStrategy:     strings.ToLower(strings.TrimSpace(v.GetString("relay_strategy"))),
		RelayTimeout:      v.GetDuration("relay_timeout"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		NIP05Timeout:      v.GetDuration("nip05_timeout"),
		AvatarTimeout:     v.GetDuration("avatar_timeout"),
		AvatarMaxBytes:    v.GetInt64("avatar_max_bytes"),
		AllowPrivateHosts: v.GetBool("allow_private_hosts"),
		CacheBackend:      strings.ToLower(v.GetString("cache_backend")),
		RedisURL:          v.GetString("redis_url"),
		CachePrefix:       v.GetString("cache_prefix"),
		AvatarTTL:         v.GetDuration("avatar_ttl"),
		AvatarFailTTL:     v.GetDuration("avatar_fail_ttl"),
		LogLevel:          strings.ToLower(v.GetString("log_level")),
	}
	if cfg.Addr == "" {
		cfg.Addr = ":" + v.GetString("port")
	}
	if len(cfg.Relays) == 0 {
		cfg.Relays = append([]string(nil), DefaultRelays...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"relay_timeout":   c.RelayTimeout,
		"request_timeout": c.RequestTimeout,
		"nip05_timeout":   c.NIP05Timeout,
		"avatar_timeout":  c.AvatarTimeout,
		"avatar_ttl":      c.AvatarTTL,
		"avatar_fail_ttl": c.AvatarFailTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.AvatarMaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("avatar_max_bytes must be positive, got %d", c.AvatarMaxBytes))
	}
	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required when cache_backend is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache_backend must be memory or redis, got %q", c.CacheBackend))
	}
	return errors.Join(errs...)
}

// stringList accepts either a real list (config file, defaults) or a single
// comma/space separated string (environment).
func stringList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
	}
	return v.GetStringSlice(key)
}
