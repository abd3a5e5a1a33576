package nostr

import (
	"net/url"
	"strings"

	"nostr-card/internal/util"
)

// NormalizeRelayURL validates and normalizes a configured relay URL.
// Returns empty string if URL is invalid/malformed
func NormalizeRelayURL(relayURL string) string {
	relayURL = strings.TrimSpace(relayURL)
	if relayURL == "" {
		return ""
	}

	// Quick reject for obviously bad URLs (no colon = no protocol)
	if !strings.Contains(relayURL, "://") {
		return ""
	}

	// Reject double protocols (wss://https://...)
	if strings.Count(relayURL, "://") > 1 {
		return ""
	}

	parsed, err := url.Parse(relayURL)
	if err != nil {
		return ""
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "ws" && scheme != "wss" {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	if len(host) < 3 || strings.Contains(host, " ") {
		return ""
	}
	if !strings.Contains(host, ".") && host != "localhost" && !strings.Contains(host, ":") {
		return ""
	}
	// Block internal/unreachable hosts (.onion, .local, .internal)
	if util.IsInternalHost(host) {
		return ""
	}

	// Normalize: strip trailing slash, lowercase
	result := scheme + "://" + strings.ToLower(parsed.Host)
	if parsed.Path != "" && parsed.Path != "/" {
		result += strings.TrimSuffix(parsed.Path, "/")
	}
	return result
}

// NormalizeRelayURLs normalizes a list, dropping invalid entries and duplicates
// while keeping the caller's order.
func NormalizeRelayURLs(relays []string) (valid []string, rejected []string) {
	seen := make(map[string]bool, len(relays))
	for _, r := range relays {
		n := NormalizeRelayURL(r)
		if n == "" {
			rejected = append(rejected, r)
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		valid = append(valid, n)
	}
	return valid, rejected
}
