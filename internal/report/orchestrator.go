// Package report synthesizes narrative summaries of work-log entries through
// the AI service.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
)

// Request describes one synthesis.
type Request struct {
	Entries   []models.Entry
	Start     string
	End       string
	RangeType models.RangeType
	Template  *models.SummaryTemplate // optional
}

// Orchestrator filters entries, prompts the AI service once and validates the
// reply into a Summary. It keeps no state between calls and persists nothing.
type Orchestrator struct {
	ai    ai.Completer
	now   func() time.Time
	newID func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source used for Summary.CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDs overrides the Summary identifier generator.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// New creates an Orchestrator.
func New(c ai.Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ai:    c,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Synthesize produces a Summary for the entries dated within [Start, End].
//
// It fails with apperr.ErrEmptyRange, without calling the AI service, when no
// entry falls in the range. Any failure of the single AI call, or a reply that
// does not match ResponseSchema, is returned as *apperr.SynthesisError.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) (*models.Summary, error) {
	entries := models.FilterRange(req.Entries, req.Start, req.End)
	if len(entries) == 0 {
		return nil, apperr.ErrEmptyRange
	}

	raw, err := o.ai.Complete(ctx, ai.Request{
		Operation: ai.OpSynthesize,
		System:    systemPrompt,
		Prompt:    BuildPrompt(entries, req.Start, req.End, Instructions(req.Template)),
		Schema:    ResponseSchema,
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrServiceUnavailable) {
			err = fmt.Errorf("%w: %v", apperr.ErrServiceUnavailable, err)
		}
		return nil, &apperr.SynthesisError{Raw: raw, Err: err}
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, &apperr.SynthesisError{Raw: raw, Err: fmt.Errorf("%w: %v", apperr.ErrSchemaMismatch, err)}
	}

	rangeType := req.RangeType
	if rangeType == "" {
		rangeType = models.RangeCustom
	}
	s := &models.Summary{
		ID:           o.newID(),
		RangeType:    rangeType,
		StartDate:    req.Start,
		EndDate:      req.End,
		CoreContent:  resp.CoreContent,
		Outcomes:     resp.Outcomes,
		PendingItems: resp.PendingItems,
		Blockers:     resp.Blockers,
		Solutions:    resp.Solutions,
		Keywords:     resp.Keywords,
		RawMarkdown:  resp.FullMarkdown,
		CreatedAt:    o.now(),
	}
	if req.Template != nil {
		s.TemplateID = req.Template.ID
	}
	return s, nil
}
