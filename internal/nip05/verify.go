// Package nip05 checks NIP-05 identity claims (local@domain) against the
// domain's .well-known/nostr.json document.
package nip05

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nostr-card/internal/nostr"
	"nostr-card/internal/util"
)

// DefaultTimeout applies to each lookup attempt.
const DefaultTimeout = 5 * time.Second

// maxDocumentSize caps the nostr.json body we are willing to read.
const maxDocumentSize = 1 << 20

// Options configures a Verifier.
type Options struct {
	Timeout time.Duration
	// Client overrides the HTTP client (tests use the TLS test server's client).
	Client *http.Client
	// AllowPrivateHosts disables the loopback/internal host block.
	AllowPrivateHosts bool
}

// Verifier resolves NIP-05 claims. It never returns an error: every failure
// is an unverified claim.
type Verifier struct {
	client       *http.Client
	allowPrivate bool
}

// NewVerifier builds a Verifier with the redirect limits used for all
// outbound lookups. A caller-supplied client is copied, not modified.
func NewVerifier(opts Options) *Verifier {
	v := &Verifier{allowPrivate: opts.AllowPrivateHosts}

	var client http.Client
	if opts.Client != nil {
		client = *opts.Client
	} else {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client.Timeout = timeout
	}
	client.CheckRedirect = v.checkRedirect
	v.client = &client
	return v
}

// checkRedirect caps redirects and applies the private host block to every hop.
func (v *Verifier) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 3 {
		return errTooManyRedirects
	}
	if !v.allowPrivate && util.IsPrivateHost(req.URL.Hostname()) {
		return fmt.Errorf("%w: %s", errPrivateRedirect, req.URL.Hostname())
	}
	return nil
}

// document is the .well-known/nostr.json payload. Names values are decoded
// lazily so one bad entry does not hide the one we are looking for.
type document struct {
	Names map[string]json.RawMessage `json:"names"`
}

var (
	errStatus           = errors.New("non-success status")
	errTooManyRedirects = errors.New("too many redirects")
	errPrivateRedirect  = errors.New("redirect to private/internal host")
)

// Verify reports whether claim maps to pubkey on the claimed domain.
// https is tried first; http is tried once if https fails to produce a
// successful response. The mapped value must equal pubkey exactly.
func (v *Verifier) Verify(ctx context.Context, pubkey, claim string) bool {
	local, domain, ok := strings.Cut(claim, "@")
	if !ok || local == "" || domain == "" {
		slog.Debug("invalid nip05 format", "nip05", claim)
		return false
	}
	if strings.ContainsAny(domain, "/\\?#") {
		slog.Debug("invalid nip05 domain", "domain", domain)
		return false
	}
	if !v.allowPrivate && util.IsPrivateHost(util.HostOnly(domain)) {
		slog.Debug("nip05 domain is private/internal", "domain", domain)
		return false
	}

	body, err := v.fetch(ctx, "https", local, domain)
	if err != nil {
		slog.Debug("nip05 https lookup failed, trying http", "domain", domain, "error", err)
		body, err = v.fetch(ctx, "http", local, domain)
		if err != nil {
			slog.Debug("nip05 lookup failed", "domain", domain, "error", err)
			return false
		}
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		slog.Debug("failed to parse nip05 response", "domain", domain, "error", err)
		return false
	}
	raw, ok := doc.Names[local]
	if !ok {
		slog.Debug("nip05 name not found in response", "name", local, "domain", domain)
		return false
	}
	var mapped string
	if err := json.Unmarshal(raw, &mapped); err != nil {
		return false
	}
	if mapped != pubkey {
		slog.Debug("nip05 pubkey mismatch", "expected", nostr.ShortID(pubkey), "got", nostr.ShortID(mapped))
		return false
	}

	slog.Debug("nip05 verified", "nip05", claim, "pubkey", nostr.ShortID(pubkey))
	return true
}

// LookupURL builds the well-known document URL for a scheme.
func LookupURL(scheme, local, domain string) string {
	u := url.URL{
		Scheme:   scheme,
		Host:     domain,
		Path:     "/.well-known/nostr.json",
		RawQuery: url.Values{"name": {local}}.Encode(),
	}
	return u.String()
}

func (v *Verifier) fetch(ctx context.Context, scheme, local, domain string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, LookupURL(scheme, local, domain), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}
