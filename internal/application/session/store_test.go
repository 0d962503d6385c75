package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/analytics-dashboard-api/internal/domain"
)

// --- mocks ---

type mockTier struct{ mock.Mock }

func (m *mockTier) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockTier) Get(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTier) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func liveSession(token string) *domain.Session {
	return &domain.Session{
		Token:       token,
		Email:       "ana@example.com",
		DisplayName: "Ana",
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}
}

func staleSession(token string) *domain.Session {
	s := liveSession(token)
	s.CreatedAt = time.Now().UTC().Add(-25 * time.Hour)
	return s
}

// --- Put ---

func TestStorePut_WritesBothTiers(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()
	sess := liveSession("tok-1")

	durable.On("Put", ctx, sess).Return(nil)
	fast.On("Put", ctx, sess).Return(nil)

	require.NoError(t, store.Put(ctx, sess))
	fast.AssertExpectations(t)
	durable.AssertExpectations(t)
}

func TestStorePut_DurableFailureIsFatal(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()
	sess := liveSession("tok-1")

	durable.On("Put", ctx, sess).Return(errors.New("dynamo down"))

	assert.Error(t, store.Put(ctx, sess))
	fast.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestStorePut_FastFailureIsTolerated(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()
	sess := liveSession("tok-1")

	durable.On("Put", ctx, sess).Return(nil)
	fast.On("Put", ctx, sess).Return(errors.New("redis down"))

	assert.NoError(t, store.Put(ctx, sess))
}

// --- Get ---

func TestStoreGet_FastHit(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()

	fast.On("Get", ctx, "tok-1").Return(liveSession("tok-1"), nil)

	sess, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", sess.Email)
	durable.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestStoreGet_FastMissRepopulatesFromDurable(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()
	sess := liveSession("tok-1")

	fast.On("Get", ctx, "tok-1").Return(nil, domain.ErrNotFound)
	durable.On("Get", ctx, "tok-1").Return(sess, nil)
	fast.On("Put", ctx, sess).Return(nil)

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
	fast.AssertExpectations(t)
}

func TestStoreGet_UnknownToken(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()

	fast.On("Get", ctx, "nope").Return(nil, domain.ErrNotFound)
	durable.On("Get", ctx, "nope").Return(nil, domain.ErrNotFound)

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreGet_EmptyToken(t *testing.T) {
	store := NewStore(&mockTier{}, &mockTier{})

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreGet_ExpiredSessionPurgedFromBothTiers(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()

	fast.On("Get", ctx, "tok-old").Return(staleSession("tok-old"), nil)
	fast.On("Delete", ctx, "tok-old").Return(nil)
	durable.On("Delete", ctx, "tok-old").Return(nil)

	_, err := store.Get(ctx, "tok-old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	fast.AssertExpectations(t)
	durable.AssertExpectations(t)
}

func TestStoreGet_FastErrorFallsThroughToDurable(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()
	sess := liveSession("tok-1")

	fast.On("Get", ctx, "tok-1").Return(nil, errors.New("redis down"))
	durable.On("Get", ctx, "tok-1").Return(sess, nil)
	fast.On("Put", ctx, sess).Return(errors.New("redis down"))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

// --- Validate / Delete ---

func TestStoreValidate_MapsMissToUnauthorized(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()

	fast.On("Get", ctx, "nope").Return(nil, domain.ErrNotFound)
	durable.On("Get", ctx, "nope").Return(nil, domain.ErrNotFound)

	_, err := store.Validate(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestStoreDelete_PurgesBothTiers(t *testing.T) {
	fast, durable := &mockTier{}, &mockTier{}
	store := NewStore(fast, durable)
	ctx := context.Background()

	fast.On("Delete", ctx, "tok-1").Return(nil)
	durable.On("Delete", ctx, "tok-1").Return(nil)

	require.NoError(t, store.Delete(ctx, "tok-1"))
	fast.AssertExpectations(t)
	durable.AssertExpectations(t)
}
