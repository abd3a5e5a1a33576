// Package relay fetches kind 0 profile metadata from Nostr relays using
// short-lived, single-subscription websocket connections.
package relay

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"nostr-card/internal/types"
)

// DefaultTimeout bounds a fetch, measured from the first connection attempt.
const DefaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	Strategy Strategy
	Timeout  time.Duration
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Client fetches profiles with the configured relay strategy.
type Client struct {
	strategy Strategy
	fetcher  Fetcher
}

// NewClient builds a Client. An unknown strategy is an error.
func NewClient(opts Options) (*Client, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategySequential
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	a := &wsAttempt{dialer: opts.Dialer}
	fetcher, err := newFetcher(opts.Strategy, a.run, opts.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{strategy: opts.Strategy, fetcher: fetcher}, nil
}

// Strategy reports the relay strategy in effect.
func (c *Client) Strategy() Strategy {
	return c.strategy
}

// FetchProfile returns the profile from the first matching kind 0 event.
// The returned Profile always carries the requested pubkey.
func (c *Client) FetchProfile(ctx context.Context, pubkey string, relays []string) (*types.Profile, error) {
	m, err := c.fetcher.FetchFirstMatchingEvent(ctx, pubkey, relays)
	if err != nil {
		return nil, err
	}
	return m.Profile, nil
}

// FetchFirstMatchingEvent exposes the underlying strategy so callers can see
// which relay answered.
func (c *Client) FetchFirstMatchingEvent(ctx context.Context, pubkey string, relays []string) (*Match, error) {
	return c.fetcher.FetchFirstMatchingEvent(ctx, pubkey, relays)
}
