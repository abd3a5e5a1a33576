package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nostr-card/internal/avatar"
	"nostr-card/internal/cache"
	"nostr-card/internal/config"
	"nostr-card/internal/nip05"
	"nostr-card/internal/nostr"
	"nostr-card/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		InitLogger("info")
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// app holds the long-lived dependencies built from config.
type app struct {
	cards   *cardService
	backend cache.Backend
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	relays, rejected := nostr.NormalizeRelayURLs(cfg.Relays)
	if len(rejected) > 0 {
		slog.Warn("ignoring invalid relay URLs", "relays", rejected)
	}
	if len(relays) == 0 {
		return nil, errors.New("no valid relays configured")
	}

	strategy, err := relay.ParseStrategy(cfg.RelayStrategy)
	if err != nil {
		return nil, err
	}
	client, err := relay.NewClient(relay.Options{Strategy: strategy, Timeout: cfg.RelayTimeout})
	if err != nil {
		return nil, err
	}

	backend, err := cache.New(ctx, cache.Options{
		Backend:  cfg.CacheBackend,
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.CachePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	cards := &cardService{
		relays:   relays,
		strategy: string(strategy),
		fetcher:  client,
		verifier: nip05.NewVerifier(nip05.Options{
			Timeout:           cfg.NIP05Timeout,
			AllowPrivateHosts: cfg.AllowPrivateHosts,
		}),
		avatars: avatar.NewInliner(avatar.Options{
			Timeout:           cfg.AvatarTimeout,
			MaxBytes:          cfg.AvatarMaxBytes,
			AllowPrivateHosts: cfg.AllowPrivateHosts,
			Cache:             backend,
			TTL:               cache.Config{AvatarTTL: cfg.AvatarTTL, AvatarFailTTL: cfg.AvatarFailTTL},
		}),
		timeout:           cfg.RequestTimeout,
		allowPrivateHosts: cfg.AllowPrivateHosts,
	}

	if strategy == relay.StrategySequential && time.Duration(len(relays))*cfg.RelayTimeout > cfg.RequestTimeout {
		slog.Warn("request_timeout is shorter than a full sequential fallback; later relays may be skipped",
			"relays", len(relays),
			"relay_timeout", cfg.RelayTimeout,
			"request_timeout", cfg.RequestTimeout,
		)
	}

	slog.Info("card service configured",
		"relays", relays,
		"strategy", strategy,
		"relay_timeout", cfg.RelayTimeout,
		"request_timeout", cfg.RequestTimeout,
		"cache_backend", cfg.CacheBackend,
	)
	return &app{cards: cards, backend: backend}, nil
}

// serverWriteTimeout leaves room past the card build deadline so a timed
// out build still reaches the client as a 500.
func serverWriteTimeout(cfg *config.Config) time.Duration {
	return cfg.RequestTimeout + 5*time.Second
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.backend.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(a.cards),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      serverWriteTimeout(cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
