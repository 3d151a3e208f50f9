package worklog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/sse"
)

// TemplateInput creates (empty or unknown ID) or updates a template.
type TemplateInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Structure   string `json:"structure"`
}

// Validate validates the input.
func (in *TemplateInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, validation.By(notBlank), validation.Length(1, 120)),
		validation.Field(&in.Structure, validation.Required, validation.By(notBlank)),
	)
}

// ListTemplates returns every template. The default templates are seeded on
// the first-ever load.
func (s *Service) ListTemplates(_ context.Context) ([]models.SummaryTemplate, error) {
	items, _, err := s.store.LoadTemplates()
	if err != nil {
		return nil, err
	}
	return nonNil(items), nil
}

// SaveTemplate creates or updates a template.
func (s *Service) SaveTemplate(_ context.Context, in TemplateInput) (*models.SummaryTemplate, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation("template: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, rev, err := s.store.LoadTemplates()
	if err != nil {
		return nil, err
	}

	t := models.SummaryTemplate{
		ID:          in.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Structure:   in.Structure,
	}
	found := false
	for i := range items {
		if in.ID != "" && items[i].ID == in.ID {
			t.IsDefault = items[i].IsDefault
			items[i] = t
			found = true
			break
		}
	}
	if !found {
		if t.ID == "" {
			t.ID = s.newID()
		}
		items = append(items, t)
	}

	if _, err := s.store.Templates.SaveIf(rev, items); err != nil {
		return nil, err
	}
	s.logger.Info("template saved", slog.String("id", t.ID), slog.Bool("created", !found))
	s.publish(sse.TypeTemplatesUpdated, map[string]string{"id": t.ID})
	return &t, nil
}

// DeleteTemplate removes a template. Summaries that reference it keep their
// TemplateID.
func (s *Service) DeleteTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, rev, err := s.store.LoadTemplates()
	if err != nil {
		return err
	}
	kept := make([]models.SummaryTemplate, 0, len(items))
	for _, t := range items {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("template %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := s.store.Templates.SaveIf(rev, kept); err != nil {
		return err
	}
	s.logger.Info("template deleted", slog.String("id", id))
	s.publish(sse.TypeTemplatesUpdated, map[string]string{"id": id})
	return nil
}
