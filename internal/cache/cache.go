// Package cache is a tagged JSON cache for catalog reads, backed by Redis.
// A Cache without a client is a no-op: every Get misses and writes are dropped.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	TagProducts    = "products"
	TagCollections = "collections"

	keyPrefix = "storefront:cache:"
	tagPrefix = "storefront:tag:"
)

// TagProduct is the tag for entries that depend on a single product.
func TagProduct(handle string) string {
	return "product:" + handle
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the entry for key into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("cache: dropping undecodable entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, keyPrefix+key)
		return false, nil
	}
	return true, nil
}

// Set stores v under key and records key under every tag.
func (c *Cache) Set(ctx context.Context, key string, v any, tags ...string) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+key, raw, c.ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, tagPrefix+tag, key)
			if c.ttl > 0 {
				pipe.Expire(ctx, tagPrefix+tag, c.ttl)
			}
		}
		return nil
	})
	return err
}

// InvalidateTags deletes every entry recorded under the given tags.
func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) error {
	if !c.Enabled() {
		return nil
	}
	for _, tag := range tags {
		keys, err := c.client.SMembers(ctx, tagPrefix+tag).Result()
		if err != nil {
			return fmt.Errorf("cache: members of %s: %w", tag, err)
		}
		doomed := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			doomed = append(doomed, keyPrefix+k)
		}
		doomed = append(doomed, tagPrefix+tag)
		if err := c.client.Del(ctx, doomed...).Err(); err != nil {
			return fmt.Errorf("cache: invalidate %s: %w", tag, err)
		}
		c.logger.Info("cache: invalidated", zap.String("tag", tag), zap.Int("entries", len(keys)))
	}
	return nil
}
