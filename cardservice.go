package main

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"nostr-card/internal/avatar"
	"nostr-card/internal/card"
	"nostr-card/internal/nostr"
	"nostr-card/internal/relay"
	"nostr-card/internal/util"
)

// maxRelayHints bounds how many nprofile hints are tried on top of the
// configured relays.
const maxRelayHints = 3

type profileFetcher interface {
	FetchFirstMatchingEvent(ctx context.Context, pubkey string, relays []string) (*relay.Match, error)
}

type identityVerifier interface {
	Verify(ctx context.Context, pubkey, claim string) bool
}

type avatarInliner interface {
	Inline(ctx context.Context, picture string) (string, avatar.Outcome)
}

// cardService runs the fetch → (verify ∥ inline avatar) → render pipeline.
type cardService struct {
	relays   []string
	strategy string
	fetcher  profileFetcher
	verifier identityVerifier
	avatars  avatarInliner

	// Overall budget for one card build; zero means no limit.
	timeout           time.Duration
	allowPrivateHosts bool

	// Deduplicates concurrent requests for the same card.
	group singleflight.Group
}

// Card renders the card for pubkey. Only relay failures are returned;
// verification and avatar problems degrade the card instead.
func (s *cardService) Card(ctx context.Context, ref profileRef) (string, error) {
	relays := s.relaysFor(ref.Relays)
	key := ref.Pubkey + "|" + strings.Join(relays, ",")

	ch := s.group.DoChan(key, func() (any, error) {
		// The shared build outlives any single caller's disconnect.
		return s.build(context.WithoutCancel(ctx), ref.Pubkey, relays)
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("singleflight: shared card build", "pubkey", nostr.ShortID(ref.Pubkey))
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

// relaysFor appends up to maxRelayHints nprofile hints after the configured
// relays. Hints pointing at private hosts are dropped unless allowed; the
// configured relays are trusted as-is.
func (s *cardService) relaysFor(hints []string) []string {
	if len(hints) == 0 {
		return s.relays
	}
	valid, rejected := nostr.NormalizeRelayURLs(hints)
	if len(rejected) > 0 {
		slog.Debug("ignoring invalid relay hints", "relays", rejected)
	}

	seen := make(map[string]bool, len(s.relays))
	for _, r := range s.relays {
		seen[r] = true
	}
	relays := append([]string(nil), s.relays...)
	added := 0
	for _, h := range valid {
		if seen[h] {
			continue
		}
		if !s.allowPrivateHosts && isPrivateRelay(h) {
			slog.Debug("ignoring private relay hint", "relay", h)
			continue
		}
		if added == maxRelayHints {
			slog.Debug("relay hint limit reached", "limit", maxRelayHints, "hints", len(valid))
			break
		}
		seen[h] = true
		relays = append(relays, h)
		added++
	}
	return relays
}

func isPrivateRelay(relayURL string) bool {
	u, err := url.Parse(relayURL)
	return err != nil || util.IsPrivateHost(u.Hostname())
}

func (s *cardService) build(ctx context.Context, pubkey string, relays []string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m, err := s.fetcher.FetchFirstMatchingEvent(ctx, pubkey, relays)
	relayFetchTotal.WithLabelValues(s.strategy, fetchOutcome(err)).Inc()
	if err != nil {
		return "", err
	}
	slog.Debug("profile fetched", "pubkey", nostr.ShortID(pubkey), "relay", m.Relay)

	profile := m.Profile.Clone()

	var (
		verified bool
		picture  string
	)
	g, gctx := errgroup.WithContext(ctx)
	if profile.Nip05 != nil {
		claim := *profile.Nip05
		g.Go(func() error {
			verified = s.verifier.Verify(gctx, pubkey, claim)
			nip05ChecksTotal.WithLabelValues(verifiedLabel(verified)).Inc()
			slog.Debug("nip05 verification", "nip05", claim, "verified", verified)
			return nil
		})
	}
	if profile.Picture != nil {
		src := *profile.Picture
		g.Go(func() error {
			var outcome avatar.Outcome
			picture, outcome = s.avatars.Inline(gctx, src)
			avatarInlineTotal.WithLabelValues(string(outcome)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	if profile.Picture != nil {
		if picture == "" {
			profile.Picture = nil
		} else {
			profile.Picture = &picture
		}
	}

	start := time.Now()
	svg := card.Render(profile, verified)
	renderDuration.Observe(time.Since(start).Seconds())
	return svg, nil
}

