package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/sse"
	"github.com/starford/lumina/internal/testutil"
	"github.com/starford/lumina/internal/worklog"
)

const summaryReply = `{
  "coreContent": "Shipped the importer.",
  "outcomes": ["importer merged"],
  "pendingItems": ["docs"],
  "blockers": "none",
  "solutions": "n/a",
  "keywords": ["import"],
  "fullMarkdown": "# Week\n\nShipped the **importer**."
}`

// testEnv sets up a temp store, SQLite index, fake AI service and router.
// A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (*testutil.FakeCompleter, http.Handler) {
	t.Helper()
	fake, svc := testService(t)
	return fake, NewRouter(svc, authToken != "", authToken, nil)
}

func testService(t *testing.T) (*testutil.FakeCompleter, *worklog.Service) {
	t.Helper()
	_, store := testutil.TestStore(t)
	db := testutil.TestDB(t)
	fake := testutil.NewFakeCompleter().On(ai.OpClassify, models.CategoryEngineering, nil)
	svc := worklog.New(worklog.Deps{Store: store, Index: db, AI: fake},
		worklog.WithClock(func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }))
	return fake, svc
}

func do(t *testing.T, h http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createEntry(t *testing.T, h http.Handler, date, title, content string) Entry {
	t.Helper()
	w := do(t, h, http.MethodPost, "/entries", EntryRequest{
		Date:    date,
		Title:   title,
		Content: content,
		Tasks:   []models.TaskItem{{Text: "review", Completed: true}, {Text: "ship"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var e Entry
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCreateAndGetEntry(t *testing.T) {
	fake, router := testEnv(t, "")

	created := createEntry(t, router, "2024-03-04", "Parser", "Wrote the parser")
	if created.ID == "" {
		t.Fatal("created entry has no id")
	}
	if created.Category != models.CategoryEngineering {
		t.Errorf("category = %q, want %q", created.Category, models.CategoryEngineering)
	}
	if fake.Calls(ai.OpClassify) != 1 {
		t.Errorf("classify calls = %d, want 1", fake.Calls(ai.OpClassify))
	}

	w := do(t, router, http.MethodGet, "/entries/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag header")
	}
	var got Entry
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "Parser" || len(got.Tasks) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestCreateEntry_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/entries", EntryRequest{Date: "04/03/2024", Title: "x", Content: "y"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/entries", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")
	created := createEntry(t, router, "2024-03-04", "v1", "first")

	w := do(t, router, http.MethodGet, "/entries/"+created.ID, nil)
	etag := w.Header().Get("ETag")

	update := EntryRequest{Date: "2024-03-04", Title: "v2", Content: "second"}
	w = do(t, router, http.MethodPut, "/entries/"+created.ID, update, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("update with current etag = %d, body = %s", w.Code, w.Body.String())
	}
	var updated Entry
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}

	// Same etag is stale now.
	w = do(t, router, http.MethodPut, "/entries/"+created.ID, update, "If-Match", etag)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale etag = %d, want 409", w.Code)
	}

	// No If-Match means no locking.
	w = do(t, router, http.MethodPut, "/entries/"+created.ID, update)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestDeleteEntries(t *testing.T) {
	_, router := testEnv(t, "")
	a := createEntry(t, router, "2024-03-01", "a", "a")
	b := createEntry(t, router, "2024-03-02", "b", "b")

	w := do(t, router, http.MethodDelete, "/entries", DeleteEntriesRequest{IDs: []string{a.ID, b.ID, "ghost"}})
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d, body = %s", w.Code, w.Body.String())
	}
	var resp DeleteEntriesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", resp.Deleted)
	}

	w = do(t, router, http.MethodGet, "/entries/"+a.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/entries", DeleteEntriesRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("delete without ids = %d, want 400", w.Code)
	}
}

func TestListEntries_QueryAndRange(t *testing.T) {
	_, router := testEnv(t, "")
	createEntry(t, router, "2024-03-01", "Parser work", "tokenizer uniquetoken")
	createEntry(t, router, "2024-03-05", "Meeting", "weekly sync")

	w := do(t, router, http.MethodGet, "/entries?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", w.Code, w.Body.String())
	}
	var resp EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Entries[0].Title != "Parser work" {
		t.Errorf("query result = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/entries?start=2024-03-02&end=2024-03-31", nil)
	resp = EntryListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Entries[0].Title != "Meeting" {
		t.Errorf("range result = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/entries?start=2024-03-31&end=2024-03-01", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("inverted range = %d, want 400", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createEntry(t, router, "2024-03-04", "a", "a")

	w := do(t, router, http.MethodGet, "/stats?start=2024-03-01&end=2024-03-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d, body = %s", w.Code, w.Body.String())
	}
	var st DashboardStats
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.TotalLogs != 1 || st.TotalTasks != 2 || st.CompletionRate != 50 {
		t.Errorf("stats = %+v", st)
	}

	w = do(t, router, http.MethodGet, "/stats?start=2024-03-01", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing end = %d, want 400", w.Code)
	}
}

func TestPolishEndpoint(t *testing.T) {
	fake, router := testEnv(t, "")
	fake.On(ai.OpPolish, "  Fixed the defect.  ", nil)

	w := do(t, router, http.MethodPost, "/polish", PolishRequest{Text: "fixed bug"})
	if w.Code != http.StatusOK {
		t.Fatalf("polish = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PolishResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Text != "Fixed the defect." {
		t.Errorf("text = %q", resp.Text)
	}

	fake.On(ai.OpPolish, "", apperr.ErrServiceUnavailable)
	w = do(t, router, http.MethodPost, "/polish", PolishRequest{Text: "fixed bug"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("ai failure = %d, want 502", w.Code)
	}
}

func TestImportMarkdown(t *testing.T) {
	_, router := testEnv(t, "")

	doc := "---\ndate: 2024-03-02\ntitle: Imported\n---\nDid things.\n\n- [x] one\n- [ ] two\n"
	w := do(t, router, http.MethodPost, "/entries/import", doc, "Content-Type", "text/markdown")
	if w.Code != http.StatusCreated {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ImportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(resp.Entries))
	}
	if e := resp.Entries[0]; e.Title != "Imported" || e.Date != "2024-03-02" || len(e.Tasks) != 2 {
		t.Errorf("imported = %+v", e)
	}

	w = do(t, router, http.MethodPost, "/entries/import", ImportRequest{Content: doc}, "Content-Type", "application/json")
	if w.Code != http.StatusCreated {
		t.Errorf("json import = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/entries/import", "   ", "Content-Type", "text/plain")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty import = %d, want 400", w.Code)
	}
}

func TestSummaryLifecycle(t *testing.T) {
	fake, router := testEnv(t, "")
	fake.On(ai.OpSynthesize, summaryReply, nil)
	createEntry(t, router, "2024-03-04", "Importer", "Built the importer")

	w := do(t, router, http.MethodPost, "/summaries", GenerateSummaryRequest{
		RangeType: models.RangeWeekly, Start: "2024-03-04", End: "2024-03-10", TemplateID: "default-pro",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("generate = %d, body = %s", w.Code, w.Body.String())
	}
	var sum Summary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.CoreContent != "Shipped the importer." {
		t.Errorf("core content = %q", sum.CoreContent)
	}

	w = do(t, router, http.MethodGet, "/summaries", nil)
	var list SummaryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(list.Summaries))
	}

	w = do(t, router, http.MethodGet, "/summaries/"+sum.ID, nil)
	var detail SummaryDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.TemplateName == "" {
		t.Error("template name not resolved")
	}

	w = do(t, router, http.MethodGet, "/summaries/"+sum.ID+"/export?format=html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export html = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "<strong>importer</strong>") {
		t.Errorf("html export missing rendered markdown: %s", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "summary-2024-03-04_2024-03-10.html") {
		t.Errorf("content-disposition = %q", cd)
	}

	w = do(t, router, http.MethodDelete, "/summaries/"+sum.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/summaries/"+sum.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestGenerateSummary_Errors(t *testing.T) {
	fake, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/summaries", GenerateSummaryRequest{Start: "2024-03-04", End: "2024-03-10"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty range = %d, want 400", w.Code)
	}

	createEntry(t, router, "2024-03-04", "a", "a")
	fake.On(ai.OpSynthesize, `{"coreContent": "only"}`, nil)
	w = do(t, router, http.MethodPost, "/summaries", GenerateSummaryRequest{Start: "2024-03-04", End: "2024-03-10"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("schema mismatch = %d, want 502", w.Code)
	}

	w = do(t, router, http.MethodGet, "/summaries", nil)
	var list SummaryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Summaries) != 0 {
		t.Errorf("failed synthesis stored %d summaries", len(list.Summaries))
	}
}

func TestExportEntries(t *testing.T) {
	_, router := testEnv(t, "")
	createEntry(t, router, "2024-03-01", "Older", "line one\nline two")
	createEntry(t, router, "2024-03-03", "Newer", "text")

	w := do(t, router, http.MethodGet, "/export/entries?format=csv&start=2024-03-01&end=2024-03-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export csv = %d, body = %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "work-logs-2024-03-04.csv") {
		t.Errorf("content-disposition = %q", cd)
	}
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(w.Body.String(), "\ufeff"))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][1] != "Newer" {
		t.Errorf("rows = %v", rows)
	}
	if n, _ := strconv.Atoi(w.Header().Get("Content-Length")); n != w.Body.Len() {
		t.Errorf("content-length = %d, body = %d", n, w.Body.Len())
	}

	w = do(t, router, http.MethodGet, "/export/entries?start=2025-01-01&end=2025-01-31", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty range export = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodGet, "/export/entries?format=pdf&start=2024-03-01&end=2024-03-31", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format = %d, want 400", w.Code)
	}
}

func TestTemplatesCRUD(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/templates", nil)
	var list TemplateListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	seeded := len(list.Templates)
	if seeded == 0 {
		t.Fatal("default templates not seeded")
	}

	w = do(t, router, http.MethodPost, "/templates", TemplateRequest{Name: "Sprint", Structure: "1. Goals"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var tpl Template
	_ = json.Unmarshal(w.Body.Bytes(), &tpl)

	w = do(t, router, http.MethodPut, "/templates/"+tpl.ID, TemplateRequest{Name: "Sprint v2", Structure: "1. Goals"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/templates", TemplateRequest{Name: "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank template = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/templates/"+tpl.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/templates", nil)
	list = TemplateListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Templates) != seeded {
		t.Errorf("templates = %d, want %d", len(list.Templates), seeded)
	}
}

func TestSettings(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/settings", nil)
	var s Settings
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s != models.DefaultSettings() {
		t.Errorf("defaults = %+v", s)
	}

	s.SiteTitle = "Team log"
	w = do(t, router, http.MethodPut, "/settings", s)
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodGet, "/settings", nil)
	s = Settings{}
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s.SiteTitle != "Team log" {
		t.Errorf("site title = %q", s.SiteTitle)
	}

	w = do(t, router, http.MethodPut, "/settings", Settings{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty settings = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/entries", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/entries", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/entries", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/entries", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	_, svc := testService(t)
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	return NewRouter(svc, authEnabled, token, broker)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	// The SSE handler blocks until the request context ends.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}
}
