package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/analytics-dashboard-api/internal/domain"
)

// SessionCache is the fast session tier: volatile, short TTL, safe to lose.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func sessionKey(token string) string { return "session:" + token }

func (c *SessionCache) Put(ctx context.Context, s *domain.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return c.client.Set(ctx, sessionKey(s.Token), payload, domain.FastSessionTTL).Err()
}

func (c *SessionCache) Get(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session not cached: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s.Token = token
	return &s, nil
}

func (c *SessionCache) Delete(ctx context.Context, token string) error {
	return c.client.Del(ctx, sessionKey(token)).Err()
}
