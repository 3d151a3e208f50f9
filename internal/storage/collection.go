package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/checksum"
	"github.com/starford/lumina/internal/models"
)

// Key names one of the persisted collections.
type Key string

// Collection keys.
const (
	KeyLogs      Key = "logs"
	KeySummaries Key = "summaries"
	KeyTemplates Key = "templates"
	KeySettings  Key = "settings"
)

// File returns the store file name backing the collection.
func (k Key) File() string { return string(k) + ".json" }

// Collection is a typed whole-value accessor for one key. Every Save
// replaces the stored value; there are no partial updates.
//
// A revision is the checksum of the stored bytes, or "" when nothing has
// been stored under the key yet.
type Collection[T any] struct {
	p   Provider
	key Key
	mu  sync.Mutex
}

// NewCollection returns an accessor for key backed by p.
func NewCollection[T any](p Provider, key Key) *Collection[T] {
	return &Collection[T]{p: p, key: key}
}

// Key returns the collection key.
func (c *Collection[T]) Key() Key { return c.key }

// Load returns the stored value and its revision. An absent file yields the
// zero value and an empty revision.
func (c *Collection[T]) Load() (T, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *Collection[T]) load() (T, string, error) {
	var v T
	data, err := c.p.Read(c.key.File())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, "", nil
		}
		return v, "", err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, "", fmt.Errorf("storage: decode %s: %w", c.key, err)
	}
	return v, checksum.Sum(data), nil
}

// Save replaces the stored value unconditionally and returns the new revision.
func (c *Collection[T]) Save(v T) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(v)
}

// SaveIf replaces the stored value only if the current revision equals rev.
// It returns apperr.ErrConflict when the value changed since it was read.
func (c *Collection[T]) SaveIf(rev string, v T) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, err := c.revision()
	if err != nil {
		return "", err
	}
	if current != rev {
		return "", fmt.Errorf("storage: %s changed since read: %w", c.key, apperr.ErrConflict)
	}
	return c.save(v)
}

func (c *Collection[T]) revision() (string, error) {
	data, err := c.p.Read(c.key.File())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return checksum.Sum(data), nil
}

func (c *Collection[T]) save(v T) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode %s: %w", c.key, err)
	}
	data = append(data, '\n')
	if err := c.p.Write(c.key.File(), data); err != nil {
		return "", err
	}
	return checksum.Sum(data), nil
}

// Store groups the four collections of the application.
type Store struct {
	Logs      *Collection[[]models.Entry]
	Summaries *Collection[[]models.Summary]
	Templates *Collection[[]models.SummaryTemplate]
	Settings  *Collection[models.Settings]
}

// NewStore wires the four collections onto p.
func NewStore(p Provider) *Store {
	return &Store{
		Logs:      NewCollection[[]models.Entry](p, KeyLogs),
		Summaries: NewCollection[[]models.Summary](p, KeySummaries),
		Templates: NewCollection[[]models.SummaryTemplate](p, KeyTemplates),
		Settings:  NewCollection[models.Settings](p, KeySettings),
	}
}

// LoadTemplates returns the template collection, seeding and persisting the
// default templates the first time nothing is stored.
func (s *Store) LoadTemplates() ([]models.SummaryTemplate, string, error) {
	s.Templates.mu.Lock()
	defer s.Templates.mu.Unlock()
	items, rev, err := s.Templates.load()
	if err != nil {
		return nil, "", err
	}
	if rev != "" {
		return items, rev, nil
	}
	items = models.DefaultTemplates()
	rev, err = s.Templates.save(items)
	if err != nil {
		return nil, "", err
	}
	return items, rev, nil
}
