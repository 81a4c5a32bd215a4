// Package cache is the accounts cache: a read-through layer in front of
// account lookups, backed by an in-process LRU or Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Backend stores encoded entries.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ErrMiss is returned by a Backend when the key is absent.
var ErrMiss = errors.New("cache: miss")

type Cache struct {
	backend Backend
	prefix  string
	group   singleflight.Group
	log     *zap.SugaredLogger
}

func New(backend Backend, prefix string, log *zap.SugaredLogger) *Cache {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Cache{backend: backend, prefix: prefix, log: log}
}

func (c *Cache) key(k string) string { return c.prefix + ":" + k }

// Invalidate drops key so the next lookup reloads it.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.key(key))
}

// GetOrPopulate returns the cached value for key. On a miss it calls load,
// stores the result and returns it. Concurrent misses for the same key share
// one load. Load errors are returned as is and nothing is cached. Backend
// failures degrade to calling load.
func GetOrPopulate[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	k := c.key(key)

	raw, err := c.backend.Get(ctx, k)
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.log.Warnw("cache entry undecodable", "key", k)
	case !errors.Is(err, ErrMiss):
		c.log.Warnw("cache get", "key", k, "err", err)
	}

	v, err, _ := c.group.Do(k, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", k, err)
		}
		if err := c.backend.Set(ctx, k, b); err != nil {
			c.log.Warnw("cache set", "key", k, "err", err)
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
