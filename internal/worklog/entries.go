package worklog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/checksum"
	"github.com/starford/lumina/internal/metrics"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/sse"
	"github.com/starford/lumina/internal/stats"
)

// EntryInput is the editable part of an Entry. An empty or unknown ID creates
// a new entry; a known ID edits it.
type EntryInput struct {
	ID      string            `json:"id"`
	Date    string            `json:"date"`
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Tasks   []models.TaskItem `json:"tasks"`
	Tags    []string          `json:"tags"`

	// IfMatch, when set, must equal the ETag of the stored entry.
	IfMatch string `json:"-"`
}

// Validate validates the input.
func (in *EntryInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&in.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&in.Content, validation.Required, validation.By(notBlank)),
	)
}

func notBlank(v interface{}) error {
	if s, _ := v.(string); strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

// EntryFilter narrows ListEntries. Zero fields do not filter.
type EntryFilter struct {
	Query string
	Start string
	End   string
}

// ETag returns the revision tag of a single entry.
func ETag(e models.Entry) string {
	return checksum.JSON(e)
}

// SaveEntry creates or edits an entry. The category is assigned by the AI
// service on every save; when classification fails an edit keeps its
// previous category and a new entry gets models.CategoryOther.
func (s *Service) SaveEntry(ctx context.Context, in EntryInput) (*models.Entry, error) {
	return s.saveEntry(ctx, in, "")
}

// saveEntry is SaveEntry with a fallback category for new entries.
func (s *Service) saveEntry(ctx context.Context, in EntryInput, hint string) (*models.Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation("entry: %v", err)
	}

	snapshot, _, err := s.store.Logs.Load()
	if err != nil {
		return nil, err
	}
	previous := hint
	editing := false
	if i := indexOf(snapshot, in.ID); i >= 0 {
		if !checksum.Match(in.IfMatch, ETag(snapshot[i])) {
			return nil, fmt.Errorf("entry %s: %w", in.ID, apperr.ErrConflict)
		}
		previous = snapshot[i].Category
		editing = true
	}
	category := s.assign.Assign(ctx, in.Title, in.Content, previous)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, rev, err := s.store.Logs.Load()
	if err != nil {
		return nil, err
	}

	i := indexOf(entries, in.ID)
	if editing && i < 0 {
		// Deleted while the category was being assigned.
		return nil, fmt.Errorf("entry %s: %w", in.ID, apperr.ErrConflict)
	}
	id := in.ID
	if i < 0 && id == "" {
		id = s.newID()
	}

	now := s.now()
	entry := models.Entry{
		ID:        id,
		Date:      in.Date,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Tasks:     s.normalizeTasks(in.Tasks),
		Tags:      normalizeTags(in.Tags),
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	kind := "created"
	if i >= 0 {
		if !checksum.Match(in.IfMatch, ETag(entries[i])) {
			return nil, fmt.Errorf("entry %s: %w", in.ID, apperr.ErrConflict)
		}
		kind = "updated"
		entry.CreatedAt = entries[i].CreatedAt
		if entry.UpdatedAt.Before(entry.CreatedAt) {
			entry.UpdatedAt = entry.CreatedAt
		}
		entries[i] = entry
	} else {
		entries = append([]models.Entry{entry}, entries...)
	}

	newRev, err := s.store.Logs.SaveIf(rev, entries)
	if err != nil {
		return nil, err
	}
	s.reindex(entries, newRev)

	metrics.EntriesSaved.WithLabelValues(kind).Inc()
	s.logger.Info("entry saved",
		slog.String("id", entry.ID),
		slog.String("kind", kind),
		slog.String("category", entry.Category))
	s.publishEntries(sse.TypeEntrySaved, entry.ID)
	return &entry, nil
}

// GetEntry returns one entry by id.
func (s *Service) GetEntry(_ context.Context, id string) (*models.Entry, error) {
	entries, _, err := s.store.Logs.Load()
	if err != nil {
		return nil, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return nil, fmt.Errorf("entry %s: %w", id, apperr.ErrNotFound)
	}
	return &entries[i], nil
}

// ListEntries returns the entries matching f in collection order (newest
// created first). The query is answered by the search index when one is
// configured, otherwise by a case-insensitive title/content match.
func (s *Service) ListEntries(_ context.Context, f EntryFilter) ([]models.Entry, error) {
	if err := validateOptionalRange(f.Start, f.End); err != nil {
		return nil, err
	}
	entries, _, err := s.store.Logs.Load()
	if err != nil {
		return nil, err
	}

	match, err := s.matcher(strings.TrimSpace(f.Query), len(entries))
	if err != nil {
		return nil, err
	}

	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Start != "" && e.Date < f.Start {
			continue
		}
		if f.End != "" && e.Date > f.End {
			continue
		}
		if !match(e) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) matcher(query string, limit int) (func(models.Entry) bool, error) {
	if query == "" {
		return func(models.Entry) bool { return true }, nil
	}
	if s.index == nil {
		q := strings.ToLower(query)
		return func(e models.Entry) bool {
			return strings.Contains(strings.ToLower(e.Title), q) ||
				strings.Contains(strings.ToLower(e.Content), q)
		}, nil
	}
	hits, err := s.index.Search(query, limit)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		ids[h.ID] = struct{}{}
	}
	return func(e models.Entry) bool {
		_, ok := ids[e.ID]
		return ok
	}, nil
}

// DeleteEntries removes the entries with the given ids. Unknown ids are
// ignored. It returns the number of entries removed.
func (s *Service) DeleteEntries(_ context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("at least one entry id is required")
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, rev, err := s.store.Logs.Load()
	if err != nil {
		return 0, err
	}
	kept := make([]models.Entry, 0, len(entries))
	var removed []string
	for _, e := range entries {
		if _, ok := drop[e.ID]; ok {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	newRev, err := s.store.Logs.SaveIf(rev, kept)
	if err != nil {
		return 0, err
	}
	s.reindex(kept, newRev)

	s.logger.Info("entries deleted", slog.Int("count", len(removed)))
	s.publishEntries(sse.TypeEntryDeleted, removed...)
	return len(removed), nil
}

// Stats computes dashboard statistics over [start, end]. Both bounds are
// required.
func (s *Service) Stats(_ context.Context, start, end string) (models.DashboardStats, error) {
	if err := validateRange(start, end); err != nil {
		return models.DashboardStats{}, err
	}
	entries, _, err := s.store.Logs.Load()
	if err != nil {
		return models.DashboardStats{}, err
	}
	return stats.Compute(entries, start, end), nil
}

// reindex brings the search index in line with a just-saved collection.
// Failures are logged and repaired by the next sync.
func (s *Service) reindex(entries []models.Entry, rev string) {
	if s.index == nil {
		return
	}
	if _, err := s.index.Reconcile(entries, rev); err != nil {
		s.logger.Warn("index: reconcile failed", slog.String("error", err.Error()))
	}
}

func (s *Service) normalizeTasks(tasks []models.TaskItem) []models.TaskItem {
	out := make([]models.TaskItem, 0, len(tasks))
	for _, t := range tasks {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		if t.ID == "" {
			t.ID = s.newID()
		}
		out = append(out, t)
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func indexOf(entries []models.Entry, id string) int {
	if id == "" {
		return -1
	}
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
