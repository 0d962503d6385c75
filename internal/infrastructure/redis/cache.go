package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/analytics-dashboard-api/internal/domain"
)

// ResponseCache is the edge KV store for memoized backend responses.
// Values are opaque serialized bodies; the proxy owns validation.
type ResponseCache struct {
	client *redis.Client
}

func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{client: client}
}

func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("cache miss: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return raw, nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *ResponseCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
