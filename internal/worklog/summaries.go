package worklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/metrics"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/report"
	"github.com/starford/lumina/internal/sse"
)

// GenerateRequest asks for a summary of the entries dated within [Start, End].
type GenerateRequest struct {
	RangeType  models.RangeType `json:"range_type"`
	Start      string           `json:"start_date"`
	End        string           `json:"end_date"`
	TemplateID string           `json:"template_id"`
}

// SummaryDetail is a Summary with its template name resolved for display.
// TemplateName is empty when the summary has no template or the template
// was deleted.
type SummaryDetail struct {
	models.Summary
	TemplateName string `json:"template_name,omitempty"`
}

// GenerateSummary synthesizes and stores a summary.
//
// Only one generation runs at a time; a second request while one is in
// flight fails with apperr.ErrBusy. The AI call is detached from ctx
// cancellation and runs to completion. Nothing is stored unless synthesis
// succeeds.
func (s *Service) GenerateSummary(ctx context.Context, req GenerateRequest) (*models.Summary, error) {
	if req.RangeType == "" {
		req.RangeType = models.RangeWeekly
	}
	if !req.RangeType.Valid() {
		return nil, apperr.Validation("unknown range type %q", req.RangeType)
	}
	if err := validateRange(req.Start, req.End); err != nil {
		return nil, err
	}

	if !s.generating.CompareAndSwap(false, true) {
		return nil, apperr.ErrBusy
	}
	defer s.generating.Store(false)

	tmpl, err := s.resolveTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}
	entries, _, err := s.store.Logs.Load()
	if err != nil {
		return nil, err
	}

	summary, err := s.reports.Synthesize(context.WithoutCancel(ctx), report.Request{
		Entries:   entries,
		Start:     req.Start,
		End:       req.End,
		RangeType: req.RangeType,
		Template:  tmpl,
	})
	metrics.Summaries.WithLabelValues(synthesisResult(err)).Inc()
	if err != nil {
		s.logSynthesisFailure(req, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, rev, err := s.store.Summaries.Load()
	if err != nil {
		return nil, err
	}
	items = append([]models.Summary{*summary}, items...)
	if _, err := s.store.Summaries.SaveIf(rev, items); err != nil {
		return nil, err
	}

	s.logger.Info("summary created",
		slog.String("id", summary.ID),
		slog.String("start", summary.StartDate),
		slog.String("end", summary.EndDate))
	s.publish(sse.TypeSummaryCreated, map[string]string{"id": summary.ID})
	return summary, nil
}

// resolveTemplate returns the template with id, or nil when id is empty or
// unknown.
func (s *Service) resolveTemplate(id string) (*models.SummaryTemplate, error) {
	if id == "" {
		return nil, nil
	}
	items, _, err := s.store.LoadTemplates()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	s.logger.Debug("summary: unknown template, using default instructions", slog.String("template_id", id))
	return nil, nil
}

func synthesisResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, apperr.ErrEmptyRange):
		return "empty_range"
	case errors.Is(err, apperr.ErrSchemaMismatch):
		return "schema_error"
	default:
		return "service_error"
	}
}

func (s *Service) logSynthesisFailure(req GenerateRequest, err error) {
	attrs := []any{
		slog.String("start", req.Start),
		slog.String("end", req.End),
		slog.String("error", err.Error()),
	}
	var se *apperr.SynthesisError
	if errors.As(err, &se) && se.Raw != "" {
		attrs = append(attrs, slog.Int("raw_bytes", len(se.Raw)))
	}
	if errors.Is(err, apperr.ErrEmptyRange) {
		s.logger.Info("summary: no entries in range", attrs...)
		return
	}
	s.logger.Warn("summary: synthesis failed", attrs...)
}

// ListSummaries returns stored summaries, newest first. A non-empty start
// keeps summaries with StartDate >= start; a non-empty end keeps those with
// EndDate <= end.
func (s *Service) ListSummaries(_ context.Context, start, end string) ([]models.Summary, error) {
	if err := validateOptionalRange(start, end); err != nil {
		return nil, err
	}
	items, _, err := s.store.Summaries.Load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Summary, 0, len(items))
	for _, it := range items {
		if start != "" && it.StartDate < start {
			continue
		}
		if end != "" && it.EndDate > end {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// GetSummary returns one summary with its template name resolved.
func (s *Service) GetSummary(_ context.Context, id string) (*SummaryDetail, error) {
	items, _, err := s.store.Summaries.Load()
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID != id {
			continue
		}
		detail := &SummaryDetail{Summary: it}
		if it.TemplateID != "" {
			templates, _, err := s.store.LoadTemplates()
			if err != nil {
				return nil, err
			}
			for _, t := range templates {
				if t.ID == it.TemplateID {
					detail.TemplateName = t.Name
					break
				}
			}
		}
		return detail, nil
	}
	return nil, fmt.Errorf("summary %s: %w", id, apperr.ErrNotFound)
}

// DeleteSummary removes one summary.
func (s *Service) DeleteSummary(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, rev, err := s.store.Summaries.Load()
	if err != nil {
		return err
	}
	kept := make([]models.Summary, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("summary %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := s.store.Summaries.SaveIf(rev, kept); err != nil {
		return err
	}
	s.logger.Info("summary deleted", slog.String("id", id))
	s.publish(sse.TypeSummaryDeleted, map[string]string{"id": id})
	return nil
}
