package nostr

import (
	"encoding/json"
	"errors"
	"fmt"

	"nostr-card/internal/types"
)

// KindProfileMetadata is the NIP-01 kind for user metadata events.
const KindProfileMetadata = 0

// ErrInvalidContent is returned when kind 0 content is not a JSON object.
var ErrInvalidContent = errors.New("profile content is not a JSON object")

// DecodeProfile parses kind 0 content into a Profile.
// The pubkey is always the one that was queried, never anything the content claims.
// Fields that are missing, empty, or not strings are left nil.
func DecodeProfile(pubkey, content string) (*types.Profile, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: got null", ErrInvalidContent)
	}

	return &types.Profile{
		Pubkey:      pubkey,
		Name:        optionalString(fields, "name"),
		DisplayName: optionalString(fields, "display_name"),
		Picture:     optionalString(fields, "picture"),
		Banner:      optionalString(fields, "banner"),
		About:       optionalString(fields, "about"),
		Website:     optionalString(fields, "website"),
		Nip05:       optionalString(fields, "nip05"),
		Lud16:       optionalString(fields, "lud16"),
	}, nil
}

func optionalString(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return nil
	}
	return &s
}
