package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes/*", h.GetNote)

	r.Get("/tags", h.Tags)
	r.Get("/tags/normalize", h.NormalizeTag)

	r.Get("/suggestions", h.Suggestions)
	r.Get("/orphans", h.Orphans)
	r.Get("/runs", h.Runs)

	r.Get("/components", h.Components)
	r.Get("/agents", h.Agents)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
