package storage

import (
	"context"
	"sync"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// MemoryStore keeps templates in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]*template.Template)}
}

// Save stores a template, replacing any previous version wholesale.
func (s *MemoryStore) Save(_ context.Context, t *template.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.templates[t.ID] = &cp
	return t.ID, nil
}

// Load retrieves a template by id.
func (s *MemoryStore) Load(_ context.Context, id string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "no template with id %q", id)
	}
	cp := *t
	return &cp, nil
}

// List returns summaries of all stored templates.
func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, Summary{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// Delete removes a template. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, id)
	return nil
}
