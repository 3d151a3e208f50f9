package worklog

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/sse"
)

// GetSettings returns the stored settings, or the defaults if none were saved.
func (s *Service) GetSettings(_ context.Context) (models.Settings, error) {
	v, rev, err := s.store.Settings.Load()
	if err != nil {
		return models.Settings{}, err
	}
	if rev == "" {
		return models.DefaultSettings(), nil
	}
	return v, nil
}

// SaveSettings replaces the settings.
func (s *Service) SaveSettings(_ context.Context, v models.Settings) (models.Settings, error) {
	err := validation.ValidateStruct(&v,
		validation.Field(&v.SiteTitle, validation.Required, validation.Length(1, 80)),
		validation.Field(&v.UserName, validation.Required, validation.Length(1, 80)),
	)
	if err != nil {
		return models.Settings{}, apperr.Validation("settings: %v", err)
	}

	if _, err := s.store.Settings.Save(v); err != nil {
		return models.Settings{}, err
	}
	s.publish(sse.TypeSettingsUpdated, v)
	return v, nil
}
