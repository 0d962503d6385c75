package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/analytics-dashboard-api/internal/domain"
)

const (
	cooldownTTL  = 30 * time.Second
	windowTTL    = 15 * time.Minute
	maxPerWindow = 3
)

// Limiter gates per-email code sends: a 30s cooldown between sends and at
// most 3 sends per rolling 15 minutes. State lives only in Redis, so a
// restart resets limits.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func cooldownKey(email string) string { return "authcode:cooldown:" + email }
func windowKey(email string) string   { return "authcode:window:" + email }

// CanSend returns nil when a send is allowed, ErrRateLimited during the
// cooldown, or ErrTooManyRequests once the window cap is reached.
func (l *Limiter) CanSend(ctx context.Context, email string) error {
	pipe := l.client.Pipeline()
	coolCmd := pipe.Exists(ctx, cooldownKey(email))
	countCmd := pipe.Get(ctx, windowKey(email))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("rate limit check: %w", err)
	}

	sent := 0
	if count, err := countCmd.Int(); err == nil {
		sent = count
	}
	return sendDecision(coolCmd.Val() > 0, sent)
}

// sendDecision applies the gating rules to the observed state. The
// cooldown takes precedence over the window cap, and the window closes
// once maxPerWindow sends have been recorded.
func sendDecision(onCooldown bool, sent int) error {
	if onCooldown {
		return domain.ErrRateLimited
	}
	if sent >= maxPerWindow {
		return domain.ErrTooManyRequests
	}
	return nil
}

// RecordSend marks an accepted send: sets the cooldown and bumps the
// window counter. INCR is atomic and ExpireNX arms the window TTL only on
// the first send, so concurrent sends can't extend the window.
func (l *Limiter) RecordSend(ctx context.Context, email string) error {
	pipe := l.client.Pipeline()
	pipe.Set(ctx, cooldownKey(email), "1", cooldownTTL)
	pipe.Incr(ctx, windowKey(email))
	pipe.ExpireNX(ctx, windowKey(email), windowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rate limit record: %w", err)
	}
	return nil
}
