package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lumina/internal/worklog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *worklog.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Entries.
	r.Get("/entries", h.ListEntries)
	r.Post("/entries", h.CreateEntry)
	r.Delete("/entries", h.DeleteEntries)
	r.Post("/entries/import", h.ImportEntries)
	r.Get("/entries/{id}", h.GetEntry)
	r.Put("/entries/{id}", h.UpdateEntry)
	r.Get("/export/entries", h.ExportEntries)

	// AI helpers and dashboard.
	r.Post("/polish", h.Polish)
	r.Get("/stats", h.Stats)

	// Summaries.
	r.Get("/summaries", h.ListSummaries)
	r.Post("/summaries", h.GenerateSummary)
	r.Get("/summaries/{id}", h.GetSummary)
	r.Delete("/summaries/{id}", h.DeleteSummary)
	r.Get("/summaries/{id}/export", h.ExportSummary)

	// Templates.
	r.Get("/templates", h.ListTemplates)
	r.Post("/templates", h.CreateTemplate)
	r.Put("/templates/{id}", h.UpdateTemplate)
	r.Delete("/templates/{id}", h.DeleteTemplate)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.SaveSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
