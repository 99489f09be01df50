package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

const (
	redisKeyPrefix = "cardforge:template:"
	redisIndexKey  = "cardforge:templates"
)

// RedisStore persists templates in Redis, one JSON value per template plus
// a set of known ids for listing.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis at %s", addr)
	}
	return &RedisStore{client: client}, nil
}

// Save stores a template, replacing any previous version wholesale.
func (s *RedisStore) Save(ctx context.Context, t *template.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode template")
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+t.ID, data, 0)
	pipe.SAdd(ctx, redisIndexKey, t.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "store template")
	}
	return t.ID, nil
}

// Load retrieves a template by id.
func (s *RedisStore) Load(ctx context.Context, id string) (*template.Template, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "no template with id %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load template")
	}
	var t template.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "decode template %q", id)
	}
	return &t, nil
}

// List returns summaries of all stored templates.
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list templates")
	}
	var out []Summary
	for _, id := range ids {
		t, err := s.Load(ctx, id)
		if err != nil {
			if errors.Is(err, errors.ErrCodeTemplateNotFound) {
				continue // index entry outlived its value
			}
			return nil, err
		}
		out = append(out, Summary{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// Delete removes a template. Deleting an unknown id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKeyPrefix+id)
	pipe.SRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete template")
	}
	return nil
}
