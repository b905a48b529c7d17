// Package rediscache stores lookup verdicts in Redis so several processes
// share them.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formstate/pkg/remote"
)

const defaultPrefix = "formstate:lookup:"

// Cache implements remote.Cache on top of Redis.
type Cache struct {
	client *backend.Client
	prefix string
}

var _ remote.Cache = (*Cache)(nil)

type Option func(*Cache)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

// Get loads a verdict. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) (remote.Verdict, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, backend.Nil) {
		return remote.Verdict{}, false, nil
	}
	if err != nil {
		return remote.Verdict{}, false, fmt.Errorf("rediscache: get %s: %w", key, err)
	}

	var verdict remote.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return remote.Verdict{}, false, fmt.Errorf("rediscache: decode %s: %w", key, err)
	}
	return verdict, true, nil
}

// Set stores a verdict. A non-positive ttl stores the key without expiry.
func (c *Cache) Set(ctx context.Context, key string, verdict remote.Verdict, ttl time.Duration) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("rediscache: encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
