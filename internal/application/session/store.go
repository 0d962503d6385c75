package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/analytics-dashboard-api/internal/domain"
)

// Tier is one of the two session storage backends. The fast tier is
// volatile with a short storage TTL; the durable tier is the source of
// truth and keeps records until sign-out.
type Tier interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// Store layers the fast tier over the durable one. Reads try fast first
// and re-populate it from durable on a miss. The logical 24h expiry is
// enforced here on every read, whichever tier answered.
type Store struct {
	fast    Tier
	durable Tier
}

func NewStore(fast, durable Tier) *Store {
	return &Store{fast: fast, durable: durable}
}

// Put writes both tiers. The durable write must succeed; a fast-tier
// failure only costs later reads a cache miss.
func (s *Store) Put(ctx context.Context, sess *domain.Session) error {
	if err := s.durable.Put(ctx, sess); err != nil {
		return fmt.Errorf("durable session write: %w", err)
	}
	if err := s.fast.Put(ctx, sess); err != nil {
		slog.Warn("fast session write failed", "error", err)
	}
	return nil
}

// Get resolves a token. Expired sessions are purged from both tiers and
// reported as ErrNotFound, so an expired token is indistinguishable from
// an unknown one.
func (s *Store) Get(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}

	sess, err := s.fast.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("fast session read failed", "error", err)
		}
		sess, err = s.durable.Get(ctx, token)
		if err != nil {
			return nil, err
		}
		// Durable hit after a fast miss: warm the cache for the next read.
		if err := s.fast.Put(ctx, sess); err != nil {
			slog.Warn("fast session re-populate failed", "error", err)
		}
	}

	if sess.Expired(time.Now()) {
		s.purge(ctx, token)
		return nil, fmt.Errorf("session expired: %w", domain.ErrNotFound)
	}
	return sess, nil
}

// Validate reports whether a token maps to a live session.
func (s *Store) Validate(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return sess, nil
}

// Delete signs the session out of both tiers.
func (s *Store) Delete(ctx context.Context, token string) error {
	s.purge(ctx, token)
	return nil
}

func (s *Store) purge(ctx context.Context, token string) {
	if err := s.fast.Delete(ctx, token); err != nil {
		slog.Warn("fast session delete failed", "error", err)
	}
	if err := s.durable.Delete(ctx, token); err != nil {
		slog.Warn("durable session delete failed", "error", err)
	}
}
