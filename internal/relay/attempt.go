package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	nostrlib "github.com/nbd-wtf/go-nostr"

	"nostr-card/internal/nostr"
	"nostr-card/internal/types"
)

// maxMessageSize caps a single relay frame; relays are untrusted.
const maxMessageSize = 512 * 1024

// Match is the first event that satisfied a subscription, with its decoded profile.
type Match struct {
	Relay   string
	Event   nostrlib.Event
	Profile *types.Profile
}

// attemptFunc runs one subscription against one relay until it settles.
type attemptFunc func(ctx context.Context, relayURL, pubkey string, deadline time.Time) (*Match, error)

// wsAttempt speaks NIP-01 over a gorilla websocket.
type wsAttempt struct {
	dialer *websocket.Dialer
}

func (a *wsAttempt) run(ctx context.Context, relayURL, pubkey string, deadline time.Time) (*Match, error) {
	sub := newSubscription(pubkey, deadline)
	attemptCtx := sub.start(ctx)

	slog.Debug("connecting to relay", "relay", relayURL, "pubkey", nostr.ShortID(pubkey), "sub", sub.ID)
	conn, _, err := a.dialer.DialContext(attemptCtx, relayURL, nil)
	if err != nil {
		sub.settle(StateFailed, nil, fmt.Errorf("%w: %v", ErrConnection, err))
		return a.finish(sub, relayURL)
	}
	if !sub.attach(conn) {
		conn.Close()
		return a.finish(sub, relayURL)
	}
	conn.SetReadLimit(maxMessageSize)

	req := []interface{}{"REQ", sub.ID, sub.Filter}
	if err := conn.WriteJSON(req); err != nil {
		sub.settle(StateFailed, nil, fmt.Errorf("%w: send REQ: %v", ErrConnection, err))
		return a.finish(sub, relayURL)
	}
	sub.markSubscribed()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			sub.settle(StateFailed, nil, fmt.Errorf("%w: %v", ErrConnection, err))
			break
		}
		if a.handle(sub, conn, relayURL, data) {
			break
		}
	}
	return a.finish(sub, relayURL)
}

// handle processes one relay frame. It returns true once the subscription has
// settled. Frames for other subscriptions, kinds or authors are ignored.
func (a *wsAttempt) handle(sub *Subscription, conn *websocket.Conn, relayURL string, data []byte) bool {
	var msg []json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil || len(msg) < 2 {
		return false
	}
	var label, subID string
	if err := json.Unmarshal(msg[0], &label); err != nil {
		return false
	}
	if err := json.Unmarshal(msg[1], &subID); err != nil || subID != sub.ID {
		return false
	}

	switch label {
	case "EVENT":
		if len(msg) < 3 {
			sub.settle(StateFailed, nil, fmt.Errorf("%w: EVENT without body", ErrMalformedEvent))
			return true
		}
		var evt nostrlib.Event
		if err := json.Unmarshal(msg[2], &evt); err != nil {
			sub.settle(StateFailed, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
			return true
		}
		if !nostr.IsProfileEventFor(&evt, sub.Pubkey) {
			return false
		}
		profile, err := nostr.DecodeProfile(sub.Pubkey, evt.Content)
		if err != nil {
			sub.settle(StateFailed, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
			return true
		}
		_ = conn.WriteJSON([]interface{}{"CLOSE", sub.ID})
		sub.settle(StateResolved, &Match{Relay: relayURL, Event: evt, Profile: profile}, nil)
		return true

	case "EOSE":
		sub.settle(StateFailed, nil, ErrNoEventFound)
		return true

	case "CLOSED":
		var reason string
		if len(msg) >= 3 {
			_ = json.Unmarshal(msg[2], &reason)
		}
		sub.settle(StateFailed, nil, fmt.Errorf("%w: subscription closed by relay: %s", ErrNoEventFound, reason))
		return true
	}
	return false
}

func (a *wsAttempt) finish(sub *Subscription, relayURL string) (*Match, error) {
	state, m, err := sub.Outcome()
	if state == StateResolved {
		slog.Debug("relay resolved profile", "relay", relayURL, "pubkey", nostr.ShortID(sub.Pubkey))
		return m, nil
	}
	slog.Debug("relay attempt failed", "relay", relayURL, "pubkey", nostr.ShortID(sub.Pubkey), "state", state.String(), "error", err)
	return nil, fmt.Errorf("relay %s: %w", relayURL, err)
}
