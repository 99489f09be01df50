package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

const storedDoc = `<svg xmlns="http://www.w3.org/2000/svg" width="85.6mm" height="54mm" viewBox="0 0 85.6 54">
  <rect width="85.6" height="54" fill="#ffffff"/>
  <text id="name" x="5" y="20" font-family="Inter" font-size="6" data-field-id="name" data-field-kind="text">Name</text>
</svg>`

func newStoredTemplate(t *testing.T, name string) *template.Template {
	t.Helper()
	tpl, err := template.New(name, []byte(storedDoc))
	if err != nil {
		t.Fatalf("template.New() error = %v", err)
	}
	return tpl
}

// backends returns every store implementation testable without external
// services.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tpl := newStoredTemplate(t, "badge")

			id, err := store.Save(ctx, tpl)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if id != tpl.ID {
				t.Errorf("Save() id = %q, want %q", id, tpl.ID)
			}

			got, err := store.Load(ctx, id)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.Name != tpl.Name {
				t.Errorf("Name = %q, want %q", got.Name, tpl.Name)
			}
			if len(got.Fields) != len(tpl.Fields) {
				t.Errorf("len(Fields) = %d, want %d", len(got.Fields), len(tpl.Fields))
			}
			if string(got.Doc) != string(tpl.Doc) {
				t.Error("Doc changed across the round trip")
			}
		})
	}
}

func TestStoreLoadUnknown(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "no-such-id")
			if err == nil {
				t.Fatal("Load() error = nil for unknown id")
			}
			if !errors.Is(err, errors.ErrCodeTemplateNotFound) {
				t.Errorf("code = %v, want TEMPLATE_NOT_FOUND", errors.GetCode(err))
			}
		})
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tpl := newStoredTemplate(t, "badge")
			if _, err := store.Save(ctx, tpl); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			tpl.Name = "badge v2"
			if _, err := store.Save(ctx, tpl); err != nil {
				t.Fatalf("Save() second error = %v", err)
			}

			got, err := store.Load(ctx, tpl.ID)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.Name != "badge v2" {
				t.Errorf("Name = %q after resave, want %q", got.Name, "badge v2")
			}

			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 1 {
				t.Errorf("len(List()) = %d after resave, want 1", len(list))
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() on empty store error = %v", err)
			}
			if len(list) != 0 {
				t.Fatalf("len(List()) = %d on empty store", len(list))
			}

			a := newStoredTemplate(t, "badge a")
			b := newStoredTemplate(t, "badge b")
			for _, tpl := range []*template.Template{a, b} {
				if _, err := store.Save(ctx, tpl); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}

			list, err = store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("len(List()) = %d, want 2", len(list))
			}
			names := map[string]string{}
			for _, s := range list {
				names[s.ID] = s.Name
			}
			if names[a.ID] != "badge a" || names[b.ID] != "badge b" {
				t.Errorf("List() = %v, want both templates summarized", list)
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tpl := newStoredTemplate(t, "badge")
			if _, err := store.Save(ctx, tpl); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if err := store.Delete(ctx, tpl.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Load(ctx, tpl.ID); !errors.Is(err, errors.ErrCodeTemplateNotFound) {
				t.Errorf("Load() after delete code = %v, want TEMPLATE_NOT_FOUND", errors.GetCode(err))
			}

			// Idempotent.
			if err := store.Delete(ctx, tpl.ID); err != nil {
				t.Errorf("Delete() of unknown id error = %v, want nil", err)
			}
		})
	}
}

func TestStoreRejectsInvalidTemplate(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tpl := newStoredTemplate(t, "badge")
			tpl.ID = ""
			if _, err := store.Save(ctx, tpl); err == nil {
				t.Fatal("Save() error = nil for a template without an id")
			}
		})
	}
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tpl := newStoredTemplate(t, "badge")
	if _, err := store.Save(ctx, tpl); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the caller's value after Save must not leak into the store.
	tpl.Name = "mutated"
	got, err := store.Load(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Name != "badge" {
		t.Errorf("Name = %q, want the value at save time", got.Name)
	}
}

func TestFileStoreSkipsUnreadableEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	tpl := newStoredTemplate(t, "badge")
	if _, err := store.Save(ctx, tpl); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != tpl.ID {
		t.Errorf("List() = %v, want only the valid template", list)
	}
}

func TestNewFileStoreRejectsEmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("code = %v, want INVALID_INPUT", errors.GetCode(err))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	if s, err := Open(ctx, Config{}); err != nil {
		t.Fatalf("Open() default error = %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open() default = %T, want *MemoryStore", s)
	}

	if s, err := Open(ctx, Config{Backend: "file", Dir: t.TempDir()}); err != nil {
		t.Fatalf("Open() file error = %v", err)
	} else if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open() file = %T, want *FileStore", s)
	}

	if _, err := Open(ctx, Config{Backend: "sqlite"}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Open() unknown backend code = %v, want UNSUPPORTED", errors.GetCode(err))
	}
}
