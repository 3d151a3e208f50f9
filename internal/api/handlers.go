package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lumina/internal/export"
	"github.com/starford/lumina/internal/worklog"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 5 << 20
)

// Handler holds the HTTP handler dependencies.
type Handler struct {
	svc *worklog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *worklog.Service) *Handler {
	return &Handler{svc: svc}
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List work-log entries
//	@Tags			entries
//	@Produce		json
//	@Param			q		query		string	false	"Case-insensitive title/content query"
//	@Param			start	query		string	false	"Earliest date (YYYY-MM-DD)"
//	@Param			end		query		string	false	"Latest date (YYYY-MM-DD)"
//	@Success		200		{object}	EntryListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.svc.ListEntries(r.Context(), worklog.EntryFilter{
		Query: q.Get("q"),
		Start: q.Get("start"),
		End:   q.Get("end"),
	})
	if err != nil {
		writeError(w, "list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get an entry by id
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry id"
//	@Success		200	{object}	Entry
//	@Header			200	{string}	ETag	"Entry revision"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get entry", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(worklog.ETag(*entry)))
	writeJSON(w, http.StatusOK, entry)
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Create an entry
//	@Description	The category is assigned by the AI service.
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EntryRequest	true	"Entry to create"
//	@Success		201		{object}	Entry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	entry, err := h.svc.SaveEntry(r.Context(), entryInput("", req))
	if err != nil {
		writeError(w, "create entry", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(worklog.ETag(*entry)))
	writeJSON(w, http.StatusCreated, entry)
}

// UpdateEntry handles PUT /api/entries/{id}.
//
//	@Summary		Update an entry with optimistic concurrency
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Entry id"
//	@Param			If-Match	header		string			false	"ETag from a previous read"
//	@Param			body		body		EntryRequest	true	"Updated entry"
//	@Success		200			{object}	Entry
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	in := entryInput(chi.URLParam(r, "id"), req)
	// Strip surrounding quotes if present (standard ETag format).
	in.IfMatch = strings.Trim(r.Header.Get("If-Match"), `"`)

	entry, err := h.svc.SaveEntry(r.Context(), in)
	if err != nil {
		writeError(w, "update entry", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(worklog.ETag(*entry)))
	writeJSON(w, http.StatusOK, entry)
}

func entryInput(id string, req EntryRequest) worklog.EntryInput {
	return worklog.EntryInput{
		ID:      id,
		Date:    req.Date,
		Title:   req.Title,
		Content: req.Content,
		Tasks:   req.Tasks,
		Tags:    req.Tags,
	}
}

// DeleteEntries handles DELETE /api/entries.
//
//	@Summary		Delete entries in batch
//	@Description	Unknown ids are ignored.
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DeleteEntriesRequest	true	"Entry ids"
//	@Success		200		{object}	DeleteEntriesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [delete]
func (h *Handler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	var req DeleteEntriesRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	n, err := h.svc.DeleteEntries(r.Context(), req.IDs...)
	if err != nil {
		writeError(w, "delete entries", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteEntriesResponse{Deleted: n})
}

// ImportEntries handles POST /api/entries/import.
//
//	@Summary		Import entries from Markdown
//	@Description	Accepts a raw Markdown body, or JSON {"content": "..."}.
//	@Tags			entries
//	@Accept			json,plain,markdown
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Markdown document"
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/import [post]
func (h *Handler) ImportEntries(w http.ResponseWriter, r *http.Request) {
	var data []byte
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req ImportRequest
		if !decodeJSON(w, r, maxImportBytes, &req) {
			return
		}
		data = []byte(req.Content)
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
			return
		}
		data = body
	}
	if strings.TrimSpace(string(data)) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	entries, err := h.svc.ImportMarkdown(r.Context(), data)
	if err != nil {
		writeError(w, "import entries", err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Entries: entries})
}

// Polish handles POST /api/polish.
//
//	@Summary		Polish work-log text
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PolishRequest	true	"Text to polish"
//	@Success		200		{object}	PolishResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/polish [post]
func (h *Handler) Polish(w http.ResponseWriter, r *http.Request) {
	var req PolishRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	out, err := h.svc.Polish(r.Context(), req.Text)
	if err != nil {
		writeError(w, "polish", err)
		return
	}
	writeJSON(w, http.StatusOK, PolishResponse{Text: out})
}

// Stats handles GET /api/stats.
//
//	@Summary		Dashboard statistics over a date range
//	@Tags			stats
//	@Produce		json
//	@Param			start	query		string	true	"First date (YYYY-MM-DD)"
//	@Param			end		query		string	true	"Last date (YYYY-MM-DD)"
//	@Success		200		{object}	DashboardStats
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st, err := h.svc.Stats(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListSummaries handles GET /api/summaries.
//
//	@Summary		List stored summaries
//	@Tags			summaries
//	@Produce		json
//	@Param			start	query		string	false	"Keep summaries starting on or after"
//	@Param			end		query		string	false	"Keep summaries ending on or before"
//	@Success		200		{object}	SummaryListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summaries [get]
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListSummaries(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, "list summaries", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryListResponse{Summaries: items})
}

// GenerateSummary handles POST /api/summaries.
//
//	@Summary		Generate a summary for a date range
//	@Description	Only one generation runs at a time.
//	@Tags			summaries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateSummaryRequest	true	"Range and template"
//	@Success		201		{object}	Summary
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summaries [post]
func (h *Handler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req GenerateSummaryRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	sum, err := h.svc.GenerateSummary(r.Context(), req)
	if err != nil {
		writeError(w, "generate summary", err)
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

// GetSummary handles GET /api/summaries/{id}.
//
//	@Summary		Get a summary
//	@Tags			summaries
//	@Produce		json
//	@Param			id	path		string	true	"Summary id"
//	@Success		200	{object}	SummaryDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summaries/{id} [get]
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get summary", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteSummary handles DELETE /api/summaries/{id}.
//
//	@Summary		Delete a summary
//	@Tags			summaries
//	@Param			id	path	string	true	"Summary id"
//	@Success		204	"Summary deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summaries/{id} [delete]
func (h *Handler) DeleteSummary(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSummary(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete summary", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSummary handles GET /api/summaries/{id}/export.
//
//	@Summary		Download a summary
//	@Tags			summaries
//	@Produce		markdown,html
//	@Param			id		path	string	true	"Summary id"
//	@Param			format	query	string	false	"md (default) or html"
//	@Success		200		{file}	file
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summaries/{id}/export [get]
func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.ExportSummary(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "export summary", err)
		return
	}
	writeFile(w, f)
}

// ExportEntries handles GET /api/export/entries.
//
//	@Summary		Download entries
//	@Description	Selects entries by ids when given, otherwise by the inclusive date range.
//	@Tags			entries
//	@Produce		markdown,csv,octet-stream
//	@Param			format	query	string	false	"md (default), csv or xlsx"
//	@Param			start	query	string	false	"First date (YYYY-MM-DD)"
//	@Param			end		query	string	false	"Last date (YYYY-MM-DD)"
//	@Param			ids		query	string	false	"Comma-separated entry ids"
//	@Success		200		{file}	file
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export/entries [get]
func (h *Handler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := worklog.ExportRequest{
		Format: export.Format(q.Get("format")),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	}
	for _, id := range strings.Split(q.Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			req.IDs = append(req.IDs, id)
		}
	}
	f, err := h.svc.ExportEntries(r.Context(), req)
	if err != nil {
		writeError(w, "export entries", err)
		return
	}
	writeFile(w, f)
}

func writeFile(w http.ResponseWriter, f *worklog.File) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

// ListTemplates handles GET /api/templates.
//
//	@Summary		List summary templates
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	TemplateListResponse
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		writeError(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: items})
}

// CreateTemplate handles POST /api/templates.
//
//	@Summary		Create a summary template
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TemplateRequest	true	"Template"
//	@Success		201		{object}	Template
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates [post]
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	h.saveTemplate(w, r, "", http.StatusCreated)
}

// UpdateTemplate handles PUT /api/templates/{id}.
//
//	@Summary		Update a summary template
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Template id"
//	@Param			body	body		TemplateRequest	true	"Template"
//	@Success		200		{object}	Template
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{id} [put]
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	h.saveTemplate(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req TemplateRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	t, err := h.svc.SaveTemplate(r.Context(), worklog.TemplateInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Structure:   req.Structure,
	})
	if err != nil {
		writeError(w, "save template", err)
		return
	}
	writeJSON(w, status, t)
}

// DeleteTemplate handles DELETE /api/templates/{id}.
//
//	@Summary		Delete a summary template
//	@Description	Summaries generated with it are kept.
//	@Tags			templates
//	@Param			id	path	string	true	"Template id"
//	@Success		204	"Template deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{id} [delete]
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get display settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetSettings(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SaveSettings handles PUT /api/settings.
//
//	@Summary		Save display settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		Settings	true	"Settings"
//	@Success		200		{object}	Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	v, err := h.svc.SaveSettings(r.Context(), req)
	if err != nil {
		writeError(w, "save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
