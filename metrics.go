package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nostr-card/internal/relay"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "card_http_requests_total",
		Help: "HTTP requests by response status",
	}, []string{"status"})
)

// Pipeline metrics
var (
	relayFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "card_relay_fetch_total",
		Help: "Profile fetches by relay strategy and outcome",
	}, []string{"strategy", "outcome"}) // outcome: resolved, timeout, no_event, malformed, connection, error

	nip05ChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "card_nip05_checks_total",
		Help: "NIP-05 verifications by result",
	}, []string{"result"}) // result: verified, unverified

	avatarInlineTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "card_avatar_inline_total",
		Help: "Avatar inlining attempts by result",
	}, []string{"result"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "card_render_duration_seconds",
		Help:    "Time spent rendering the SVG card",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
	})
)

// fetchOutcome labels a relay fetch error for card_relay_fetch_total.
func fetchOutcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, relay.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, relay.ErrNoEventFound):
		return "no_event"
	case errors.Is(err, relay.ErrMalformedEvent):
		return "malformed"
	case errors.Is(err, relay.ErrConnection):
		return "connection"
	default:
		return "error"
	}
}

func verifiedLabel(ok bool) string {
	if ok {
		return "verified"
	}
	return "unverified"
}
