// Package worklog is the application service of Lumina: it owns the entry,
// summary, template and settings collections and coordinates categorization,
// report synthesis, search indexing and change events around them.
package worklog

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/categorize"
	"github.com/starford/lumina/internal/index"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/report"
	"github.com/starford/lumina/internal/sse"
	"github.com/starford/lumina/internal/storage"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	Publish(event sse.Event)
	PublishEntryChange(typ string, ids ...string)
}

// Deps are the collaborators of a Service. Index and Events may be nil.
type Deps struct {
	Store  *storage.Store
	Index  index.EntryIndex
	AI     ai.Completer
	Events Publisher
	Logger *slog.Logger
}

// Service coordinates storage, index, AI and event operations.
//
// Read-modify-write cycles on a collection are serialized by mu and saved
// with storage.Collection.SaveIf, so an edit of the backing file made
// outside the process between read and write surfaces as apperr.ErrConflict.
// AI calls are made outside mu.
type Service struct {
	store   *storage.Store
	index   index.EntryIndex
	ai      ai.Completer
	assign  *categorize.Assigner
	reports *report.Orchestrator
	events  Publisher
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	mu         sync.Mutex
	generating atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides the identifier generator used for entries, tasks,
// templates and summaries.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a Service.
func New(d Deps, opts ...Option) *Service {
	s := &Service{
		store:  d.Store,
		index:  d.Index,
		ai:     d.AI,
		events: d.Events,
		logger: d.Logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.assign = categorize.New(d.AI, s.logger)
	s.reports = report.New(d.AI, report.WithClock(s.now), report.WithIDs(s.newID))
	return s
}

// Busy reports whether a summary generation is in flight.
func (s *Service) Busy() bool { return s.generating.Load() }

func (s *Service) publish(typ string, data any) {
	if s.events != nil {
		s.events.Publish(sse.Event{Type: typ, Data: data})
	}
}

func (s *Service) publishEntries(typ string, ids ...string) {
	if s.events != nil {
		s.events.PublishEntryChange(typ, ids...)
	}
}

// validateRange requires both bounds as YYYY-MM-DD with start <= end.
func validateRange(start, end string) error {
	err := validation.Errors{
		"start": validation.Validate(start, validation.Required, validation.Date(models.DateLayout)),
		"end":   validation.Validate(end, validation.Required, validation.Date(models.DateLayout)),
	}.Filter()
	if err != nil {
		return apperr.Validation("%v", err)
	}
	if start > end {
		return apperr.Validation("start %s is after end %s", start, end)
	}
	return nil
}

// validateOptionalRange is validateRange for filters where either bound may
// be omitted.
func validateOptionalRange(start, end string) error {
	err := validation.Errors{
		"start": validation.Validate(start, validation.Date(models.DateLayout)),
		"end":   validation.Validate(end, validation.Date(models.DateLayout)),
	}.Filter()
	if err != nil {
		return apperr.Validation("%v", err)
	}
	if start != "" && end != "" && start > end {
		return apperr.Validation("start %s is after end %s", start, end)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
