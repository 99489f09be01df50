package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cardforge/cardforge/pkg/errors"
)

func fastLoader(cache *FileCache) *Loader {
	l := NewLoader(nil, cache)
	l.delay = time.Millisecond
	return l
}

func TestLoadDataURI(t *testing.T) {
	payload := []byte("hello")
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	got, err := Default().Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Load() = %q, want %q", got, payload)
	}
}

func TestLoadDataURIUnsupportedEncoding(t *testing.T) {
	_, err := Default().Load(context.Background(), "data:image/png;hex,cafe")
	if !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("code = %v, want INVALID_PAYLOAD", errors.GetCode(err))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.bin")
	if err := os.WriteFile(path, []byte("pixels"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Default().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "pixels" {
		t.Errorf("Load() = %q, want file contents", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Default().Load(context.Background(), "/no/such/photo.png")
	if !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("code = %v, want INVALID_PAYLOAD", errors.GetCode(err))
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "finally")
	}))
	defer srv.Close()

	got, err := fastLoader(nil).Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "finally" {
		t.Errorf("Load() = %q, want %q", got, "finally")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := fastLoader(nil).Load(context.Background(), srv.URL); err == nil {
		t.Fatal("Load() error = nil for a 404")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := fastLoader(nil).Load(context.Background(), srv.URL); err == nil {
		t.Fatal("Load() error = nil for a persistently failing server")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "cached payload")
	}))
	defer srv.Close()

	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	loader := fastLoader(cache)

	for i := 0; i < 3; i++ {
		got, err := loader.Load(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Load() #%d error = %v", i, err)
		}
		if string(got) != "cached payload" {
			t.Errorf("Load() #%d = %q", i, got)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if _, ok, err := cache.Get("https://example.com/a.png"); err != nil || ok {
		t.Fatalf("Get() on empty cache = (ok=%v, err=%v)", ok, err)
	}

	if err := cache.Set("https://example.com/a.png", []byte("bytes"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := cache.Get("https://example.com/a.png")
	if err != nil || !ok {
		t.Fatalf("Get() = (ok=%v, err=%v)", ok, err)
	}
	if string(got) != "bytes" {
		t.Errorf("Get() = %q, want %q", got, "bytes")
	}

	if err := cache.Remove("https://example.com/a.png"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := cache.Get("https://example.com/a.png"); ok {
		t.Error("Get() hit after Remove()")
	}

	// Removing an absent entry is fine.
	if err := cache.Remove("https://example.com/a.png"); err != nil {
		t.Errorf("Remove() of absent entry error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set("url", []byte("stale"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, err := cache.Get("url"); err != nil {
		t.Fatalf("Get() error = %v", err)
	} else if ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set("url", []byte("ok"), 0); err != nil {
		t.Fatal(err)
	}

	// Clobber the entry on disk; the next Get treats it as a miss.
	path := cache.path("url")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cache.Get("url"); err != nil {
		t.Fatalf("Get() error = %v", err)
	} else if ok {
		t.Error("Get() returned a corrupt entry")
	}
}

func TestNewFileCacheRejectsEmptyDir(t *testing.T) {
	if _, err := NewFileCache(""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("code = %v, want INVALID_INPUT", errors.GetCode(err))
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("permanent")
	})
	if err == nil {
		t.Fatal("retry() error = nil")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &retryableError{err: fmt.Errorf("transient")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, 3, time.Minute, func() error {
		return &retryableError{err: fmt.Errorf("transient")}
	})
	if err != context.Canceled {
		t.Errorf("retry() error = %v, want context.Canceled", err)
	}
}
