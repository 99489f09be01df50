// Package storage persists templates behind a narrow interface.
//
// The core subsystems never talk to storage directly; the CLI saves a
// template after import and loads it back for field edits and rendering.
// Implementations for different backends:
//   - memory: in-process storage for tests
//   - file: JSON files under a directory, for CLI usage
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage
package storage

import (
	"context"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// Summary is the listing view of a stored template.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store is the narrow persistence interface consumed by the CLI.
// Load returns TEMPLATE_NOT_FOUND for unknown ids.
type Store interface {
	Save(ctx context.Context, t *template.Template) (string, error)
	Load(ctx context.Context, id string) (*template.Template, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"` // "memory", "file", "redis", or "mongo"

	// file backend
	Dir string `toml:"dir"`

	// redis backend
	RedisAddr string `toml:"redis_addr"`

	// mongo backend
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Open builds the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Dir)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr)
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
}
