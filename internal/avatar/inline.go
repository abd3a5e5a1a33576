// Package avatar turns a profile picture URL into an inline data URI so the
// rendered card is self-contained.
package avatar

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nostr-card/internal/cache"
	"nostr-card/internal/util"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultMaxBytes = 1 << 20
)

// Outcome describes how Inline produced its result.
type Outcome string

const (
	OutcomeEmpty       Outcome = "empty"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeCached      Outcome = "cached"
	OutcomeFetched     Outcome = "fetched"
	OutcomeFailed      Outcome = "failed"
)

var (
	errScheme      = errors.New("unsupported picture URL scheme")
	errPrivateHost = errors.New("picture host is private/internal")
	errNotImage    = errors.New("response is not an image")
	errTooLarge    = errors.New("image exceeds size limit")
)

// Options configures an Inliner.
type Options struct {
	Timeout           time.Duration
	MaxBytes          int64
	AllowPrivateHosts bool
	Client            *http.Client
	// Cache is optional; without it every call fetches.
	Cache cache.Backend
	TTL   cache.Config
}

// Inliner fetches remote avatars and encodes them as data URIs.
type Inliner struct {
	client       *http.Client
	maxBytes     int64
	allowPrivate bool
	cache        cache.Backend
	ttl          cache.Config
}

// cachedAvatar is what we store per URL. Failed entries are kept too so a
// broken picture is not refetched on every request.
type cachedAvatar struct {
	DataURI string `json:"data_uri,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
}

// NewInliner builds an Inliner. A caller-supplied client is copied and gets
// the same redirect policy as the default one.
func NewInliner(opts Options) *Inliner {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	ttl := opts.TTL
	if ttl.AvatarTTL <= 0 || ttl.AvatarFailTTL <= 0 {
		ttl = cache.DefaultConfig()
	}
	in := &Inliner{
		maxBytes:     maxBytes,
		allowPrivate: opts.AllowPrivateHosts,
		cache:        opts.Cache,
		ttl:          ttl,
	}

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
	client.CheckRedirect = in.checkRedirect
	in.client = &client
	return in
}

// checkRedirect stops after 3 hops and refuses hops to private hosts.
func (i *Inliner) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 3 {
		return http.ErrUseLastResponse
	}
	if !i.allowPrivate && util.IsPrivateHost(req.URL.Hostname()) {
		return fmt.Errorf("%w: redirect to %s", errPrivateHost, req.URL.Hostname())
	}
	return nil
}

// Inline returns picture as a data URI, or "" when it cannot be inlined.
// Failures are never returned as errors; the card falls back to the
// placeholder avatar instead.
func (i *Inliner) Inline(ctx context.Context, picture string) (string, Outcome) {
	picture = strings.TrimSpace(picture)
	if picture == "" {
		return "", OutcomeEmpty
	}
	if strings.HasPrefix(strings.ToLower(picture), "data:image/") {
		return picture, OutcomePassthrough
	}

	key := CacheKey(picture)
	if entry, ok := i.lookup(ctx, key); ok {
		if entry.Failed {
			return "", OutcomeFailed
		}
		return entry.DataURI, OutcomeCached
	}

	dataURI, err := i.fetch(ctx, picture)
	if err != nil {
		slog.Debug("avatar inline failed", "url", picture, "error", err)
		// Cancellation says nothing about the picture itself.
		if ctx.Err() == nil {
			i.store(ctx, key, cachedAvatar{Failed: true}, i.ttl.AvatarFailTTL)
		}
		return "", OutcomeFailed
	}
	i.store(ctx, key, cachedAvatar{DataURI: dataURI}, i.ttl.AvatarTTL)
	return dataURI, OutcomeFetched
}

// CacheKey derives the cache key for a picture URL.
func CacheKey(picture string) string {
	sum := sha256.Sum256([]byte(picture))
	return "avatar:" + hex.EncodeToString(sum[:])
}

func (i *Inliner) lookup(ctx context.Context, key string) (cachedAvatar, bool) {
	var entry cachedAvatar
	if i.cache == nil {
		return entry, false
	}
	data, found, err := i.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("avatar cache read failed", "error", err)
		return entry, false
	}
	if !found {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (i *Inliner) store(ctx context.Context, key string, entry cachedAvatar, ttl time.Duration) {
	if i.cache == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := i.cache.Set(ctx, key, data, ttl); err != nil {
		slog.Warn("avatar cache write failed", "error", err)
	}
}

func (i *Inliner) fetch(ctx context.Context, picture string) (string, error) {
	u, err := url.Parse(picture)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", errScheme, u.Scheme)
	}
	if !i.allowPrivate && util.IsPrivateHost(u.Hostname()) {
		return "", errPrivateHost
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q", errNotImage, resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, i.maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(body)) > i.maxBytes {
		return "", errTooLarge
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}
