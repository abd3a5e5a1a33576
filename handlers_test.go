package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostr-card/internal/relay"
	"nostr-card/internal/util"
)

type stubCards struct {
	svg  string
	err  error
	refs []profileRef
}

func (s *stubCards) Card(ctx context.Context, ref profileRef) (string, error) {
	s.refs = append(s.refs, ref)
	return s.svg, s.err
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProfileHandler_ServesSVG(t *testing.T) {
	cards := &stubCards{svg: "<svg/>"}
	rec := serve(t, newRouter(cards), "/api/profile/"+hexPubkey)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml;charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "<svg/>", rec.Body.String())
	require.Len(t, cards.refs, 1)
	assert.Equal(t, hexPubkey, cards.refs[0].Pubkey)
}

func TestProfileHandler_FetchFailure(t *testing.T) {
	cards := &stubCards{err: relay.ErrTimeout}
	rec := serve(t, newRouter(cards), "/api/profile/"+hexPubkey)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body util.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch profile", body.Error)
}

func TestProfileHandler_InvalidKey(t *testing.T) {
	cards := &stubCards{}
	rec := serve(t, newRouter(cards), "/api/profile/not-a-key")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body util.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid public key", body.Error)
	assert.Empty(t, cards.refs)
}

func TestHelloAndHealth(t *testing.T) {
	router := newRouter(&stubCards{})

	rec := serve(t, router, "/api/hello")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello from nostr-card!"}`, rec.Body.String())

	rec = serve(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(&stubCards{svg: "<svg/>"})
	serve(t, router, "/api/profile/"+hexPubkey)

	rec := serve(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `card_http_requests_total{status="200"}`)
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(t, newRouter(&stubCards{}), "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
