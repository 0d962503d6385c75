package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/analytics-dashboard-api/internal/domain"
)

// PendingRepo stores the session pre-built at code-send time, keyed by
// email. Entries outlive the code by one minute and are deleted on the
// first successful verification.
type PendingRepo struct {
	client *redis.Client
}

func NewPendingRepo(client *redis.Client) *PendingRepo {
	return &PendingRepo{client: client}
}

func pendingKey(email string) string { return "pending_session:" + email }

func (r *PendingRepo) Put(ctx context.Context, email string, p *domain.PendingSession) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending session: %w", err)
	}
	return r.client.Set(ctx, pendingKey(email), payload, domain.PendingSessionTTL).Err()
}

func (r *PendingRepo) Get(ctx context.Context, email string) (*domain.PendingSession, error) {
	raw, err := r.client.Get(ctx, pendingKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("no pending session: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var p domain.PendingSession
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PendingRepo) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, pendingKey(email)).Err()
}
