package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// FileStore persists each template as one JSON file in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "storage directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create storage directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the template, replacing any previous version wholesale.
// The write goes through a temp file and rename so a crash never leaves a
// half-written template.
func (s *FileStore) Save(_ context.Context, t *template.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode template")
	}

	tmp, err := os.CreateTemp(s.dir, "."+t.ID+"-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write template")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write template")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write template")
	}
	if err := os.Rename(tmp.Name(), s.path(t.ID)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write template")
	}
	return t.ID, nil
}

// Load reads a template by id.
func (s *FileStore) Load(_ context.Context, id string) (*template.Template, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "no template with id %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read template")
	}
	var t template.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "decode template %q", id)
	}
	return &t, nil
}

// List returns summaries of all stored templates.
func (s *FileStore) List(_ context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list templates")
	}
	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		t, err := s.Load(context.Background(), id)
		if err != nil {
			// Unreadable entries are skipped, not fatal to the listing.
			continue
		}
		out = append(out, Summary{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// Delete removes a template file. Deleting an unknown id is not an error.
func (s *FileStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete template")
	}
	return nil
}
