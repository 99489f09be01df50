// Package assets loads the image bytes behind a card field's source
// reference. A source is a data URI, an http(s) URL, or a local file path.
// Remote fetches retry transient failures with backoff and can be backed by
// an on-disk cache, so a sheet render binding the same photo URL into many
// cards downloads it once.
package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cardforge/cardforge/pkg/errors"
)

// remoteTTL bounds how long a fetched asset stays valid in the cache.
const remoteTTL = 24 * time.Hour

// maxAssetSize caps a single fetched asset. Anything larger is not a card
// photo.
const maxAssetSize = 32 << 20

// Loader resolves asset sources to raw bytes.
type Loader struct {
	client   *http.Client
	cache    *FileCache
	attempts int
	delay    time.Duration
}

// NewLoader creates a loader. A nil client uses a default with a 30 second
// timeout; a nil cache disables caching of remote fetches.
func NewLoader(client *http.Client, cache *FileCache) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client, cache: cache, attempts: 3, delay: 500 * time.Millisecond}
}

var defaultLoader = NewLoader(nil, nil)

// Default returns the shared uncached loader.
func Default() *Loader { return defaultLoader }

// Load resolves src to its raw bytes.
func (l *Loader) Load(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetch(ctx, src)
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "read asset %q", src)
		}
		return data, nil
	}
}

// fetch downloads a remote asset, consulting the cache first.
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.cache != nil {
		if data, ok, err := l.cache.Get(url); err == nil && ok {
			return data, nil
		}
	}

	var data []byte
	err := retry(ctx, l.attempts, l.delay, func() error {
		var ferr error
		data, ferr = l.fetchOnce(ctx, url)
		return ferr
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "fetch asset %q", url)
	}

	if l.cache != nil {
		// Cache failures only cost a refetch next time.
		_ = l.cache.Set(url, data, remoteTTL)
	}
	return data, nil
}

func (l *Loader) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		// Network failures are worth retrying; a malformed URL error from
		// Do never is, but it cannot be told apart cheaply and an extra
		// attempt on a dead URL is harmless.
		return nil, &retryableError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &retryableError{err: fmt.Errorf("status %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, &retryableError{err: err}
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxAssetSize)
	}
	return data, nil
}

func decodeDataURI(src string) ([]byte, error) {
	idx := strings.Index(src, "base64,")
	if idx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "unsupported data URI encoding")
	}
	data, err := base64.StdEncoding.DecodeString(src[idx+len("base64,"):])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode data URI")
	}
	return data, nil
}
