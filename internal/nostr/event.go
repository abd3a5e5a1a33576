// Package nostr holds the NIP-01 helpers shared by the relay client and the
// HTTP layer: kind 0 decoding, relay URL normalization and log formatting.
package nostr

import (
	nostrlib "github.com/nbd-wtf/go-nostr"
)

// IsProfileEventFor reports whether evt is a kind 0 event authored by pubkey.
func IsProfileEventFor(evt *nostrlib.Event, pubkey string) bool {
	return evt != nil && evt.Kind == KindProfileMetadata && evt.PubKey == pubkey
}

// ShortID truncates ID/pubkey to 12 chars for logging
func ShortID(id string) string {
	if len(id) >= 12 {
		return id[:12]
	}
	return id
}
