package main

import (
	"errors"
	"strings"

	nostrlib "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

var errInvalidPublicKey = errors.New("invalid public key")

// profileRef is a decoded path identifier: the hex pubkey plus any relay
// hints an nprofile carried.
type profileRef struct {
	Pubkey string
	Relays []string
}

// decodePublicKey accepts a 64-char hex pubkey, an npub, or an nprofile.
// Hex input is lowercased; anything else is errInvalidPublicKey.
func decodePublicKey(id string) (profileRef, error) {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "nostr:")

	if !strings.HasPrefix(id, "npub1") && !strings.HasPrefix(id, "nprofile1") {
		hexKey := strings.ToLower(id)
		if !nostrlib.IsValid32ByteHex(hexKey) {
			return profileRef{}, errInvalidPublicKey
		}
		return profileRef{Pubkey: hexKey}, nil
	}

	prefix, value, err := nip19.Decode(id)
	if err != nil {
		return profileRef{}, errInvalidPublicKey
	}

	var ref profileRef
	switch prefix {
	case "npub":
		pk, ok := value.(string)
		if !ok {
			return profileRef{}, errInvalidPublicKey
		}
		ref.Pubkey = pk
	case "nprofile":
		switch p := value.(type) {
		case nostrlib.ProfilePointer:
			ref = profileRef{Pubkey: p.PublicKey, Relays: p.Relays}
		case *nostrlib.ProfilePointer:
			ref = profileRef{Pubkey: p.PublicKey, Relays: p.Relays}
		default:
			return profileRef{}, errInvalidPublicKey
		}
	default:
		return profileRef{}, errInvalidPublicKey
	}

	if !nostrlib.IsValid32ByteHex(ref.Pubkey) {
		return profileRef{}, errInvalidPublicKey
	}
	return ref, nil
}
