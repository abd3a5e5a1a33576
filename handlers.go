package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nostr-card/internal/nostr"
	"nostr-card/internal/util"
)

// cardMaxAge is the Cache-Control max-age, in seconds, for rendered cards.
const cardMaxAge = "300"

type cardRenderer interface {
	Card(ctx context.Context, ref profileRef) (string, error)
}

// newRouter wires the public API plus health and metrics endpoints.
func newRouter(cards cardRenderer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLoggingMiddleware)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", helloHandler)
		r.Get("/profile/{publicKey}", profileHandler(cards))
	})
	return r
}

// profileHandler serves GET /api/profile/{publicKey} as an SVG card.
func profileHandler(cards cardRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := LoggerFromContext(r.Context())

		ref, err := decodePublicKey(chi.URLParam(r, "publicKey"))
		if err != nil {
			util.RespondBadRequest(w, err.Error())
			return
		}

		svg, err := cards.Card(r.Context(), ref)
		if err != nil {
			log.Error("error fetching profile", "pubkey", nostr.ShortID(ref.Pubkey), "error", err)
			util.RespondInternalError(w, "Failed to fetch profile")
			return
		}

		util.SetSVGHeaders(w, cardMaxAge)
		w.WriteHeader(http.StatusOK)
		util.WriteSVG(w, svg)
	}
}

func helloHandler(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "Hello from nostr-card!"})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
