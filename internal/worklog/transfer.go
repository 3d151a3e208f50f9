package worklog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/export"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/parser"
)

// File is a rendered export ready for download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportRequest selects the entries to export: explicit IDs, or every entry
// dated within [Start, End] when IDs is empty.
type ExportRequest struct {
	Format export.Format
	Start  string
	End    string
	IDs    []string
}

// ExportEntries renders the selected entries. A selection with no entries
// fails with apperr.ErrEmptyRange.
func (s *Service) ExportEntries(_ context.Context, req ExportRequest) (*File, error) {
	format, err := export.ParseFormat(string(req.Format))
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	entries, _, err := s.store.Logs.Load()
	if err != nil {
		return nil, err
	}

	var selected []models.Entry
	if len(req.IDs) > 0 {
		want := make(map[string]struct{}, len(req.IDs))
		for _, id := range req.IDs {
			want[id] = struct{}{}
		}
		for _, e := range entries {
			if _, ok := want[e.ID]; ok {
				selected = append(selected, e)
			}
		}
	} else {
		if err := validateRange(req.Start, req.End); err != nil {
			return nil, err
		}
		selected = models.FilterRange(entries, req.Start, req.End)
	}
	if len(selected) == 0 {
		return nil, apperr.ErrEmptyRange
	}

	var buf bytes.Buffer
	if err := export.Entries(&buf, format, selected); err != nil {
		return nil, err
	}
	return &File{
		Name:        export.EntriesFilename(format, s.now()),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// ExportSummary renders a summary as "md" (the raw narrative verbatim) or
// "html".
func (s *Service) ExportSummary(ctx context.Context, id, format string) (*File, error) {
	detail, err := s.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		format = "md"
		err = export.SummaryMarkdown(&buf, detail.Summary)
	case "html":
		format = "html"
		err = export.SummaryHTML(&buf, detail.Summary, detail.TemplateName)
	default:
		return nil, apperr.Validation("unknown summary format %q", format)
	}
	if err != nil {
		return nil, err
	}

	contentType := "text/markdown; charset=utf-8"
	if format == "html" {
		contentType = "text/html; charset=utf-8"
	}
	return &File{
		Name:        export.SummaryFilename(detail.Summary, format),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}

// ImportMarkdown saves the entries found in a Markdown document: either an
// exported compilation or a single entry with front matter. Entries without
// a date are dated today. Every entry is validated before any is saved, and
// a front matter category is kept when classification fails.
func (s *Service) ImportMarkdown(ctx context.Context, data []byte) ([]models.Entry, error) {
	results := parser.ParseCompilation(data)
	if results == nil {
		res, err := parser.Parse(data)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		results = []*parser.Result{res}
	}

	today := s.now().Format(models.DateLayout)
	inputs := make([]EntryInput, len(results))
	hints := make([]string, len(results))
	for i, r := range results {
		in := EntryInput{
			Date:    r.Date,
			Title:   r.Title,
			Content: r.Content,
			Tags:    r.Tags,
		}
		if in.Date == "" {
			in.Date = today
		}
		for _, t := range r.Tasks {
			in.Tasks = append(in.Tasks, models.TaskItem{Text: t.Text, Completed: t.Completed})
		}
		if err := in.Validate(); err != nil {
			return nil, apperr.Validation("import entry %d: %v", i+1, err)
		}
		if c, ok := models.MatchCategory(r.Category); ok {
			hints[i] = c
		}
		inputs[i] = in
	}

	// Saving prepends, so walk backwards to keep the document order on top.
	saved := make([]models.Entry, len(inputs))
	for i := len(inputs) - 1; i >= 0; i-- {
		e, err := s.saveEntry(ctx, inputs[i], hints[i])
		if err != nil {
			return saved[i+1:], fmt.Errorf("import entry %d: %w", i+1, err)
		}
		saved[i] = *e
	}
	s.logger.Info("entries imported", slog.Int("count", len(saved)))
	return saved, nil
}
