// Package redis provides a Redis-backed result cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ResultCache = (*Cache)(nil)

// keyPrefix namespaces document summaries.
const keyPrefix = "document:"

// Config holds connection settings.
type Config struct {
	// Addr is host:port (default: localhost:6379).
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int
}

// Cache stores document summaries as JSON strings with SET EX.
type Cache struct {
	client *goredis.Client
}

// NewCache connects a client. The connection is established lazily.
func NewCache(cfg Config) *Cache {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	return &Cache{
		client: goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *goredis.Client) *Cache {
	return &Cache{client: client}
}

// Key returns the Redis key for a document ID.
func Key(id string) string {
	return keyPrefix + id
}

// Put stores the summary with an expiry.
func (c *Cache) Put(ctx context.Context, summary domain.DocumentSummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, Key(summary.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the summary if present.
func (c *Cache) Get(ctx context.Context, id string) (*domain.DocumentSummary, bool, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var s domain.DocumentSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, true, nil
}

// Invalidate deletes the key. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
