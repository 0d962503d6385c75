package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/analytics-dashboard-api/internal/domain"
	"github.com/analytics-dashboard-api/internal/infrastructure/mail"
)

// --- mocks ---

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.UserRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) SetAuthCode(ctx context.Context, email, code string, issuedAt time.Time) error {
	return m.Called(ctx, email, code, issuedAt).Error(0)
}

func (m *mockUsers) IncrementAttempts(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockUsers) ClearAuthCode(ctx context.Context, email string, lastLogin time.Time) error {
	return m.Called(ctx, email, lastLogin).Error(0)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) CanSend(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockLimiter) RecordSend(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockPending struct{ mock.Mock }

func (m *mockPending) Put(ctx context.Context, email string, p *domain.PendingSession) error {
	return m.Called(ctx, email, p).Error(0)
}

func (m *mockPending) Get(ctx context.Context, email string) (*domain.PendingSession, error) {
	args := m.Called(ctx, email)
	if p := args.Get(0); p != nil {
		return p.(*domain.PendingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPending) Delete(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, msg *mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type deps struct {
	users    *mockUsers
	limiter  *mockLimiter
	pending  *mockPending
	sessions *mockSessions
	primary  *mockSender
}

func newService() (*Service, *deps) {
	d := &deps{
		users:    &mockUsers{},
		limiter:  &mockLimiter{},
		pending:  &mockPending{},
		sessions: &mockSessions{},
		primary:  &mockSender{},
	}
	svc := NewService(d.users, d.limiter, d.pending, d.sessions, d.primary, nil, "https://dash.example.com")
	return svc, d
}

func grantedUser(email string) *domain.UserRecord {
	return &domain.UserRecord{Email: email, DisplayName: "Ana", Access: "granted"}
}

// --- SendCode ---

func TestSendCode_Success(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").Return(grantedUser("ana@example.com"), nil)
	d.limiter.On("CanSend", ctx, "ana@example.com").Return(nil)
	d.users.On("SetAuthCode", ctx, "ana@example.com", mock.MatchedBy(func(code string) bool {
		return len(code) == 5
	}), mock.AnythingOfType("time.Time")).Return(nil)
	d.pending.On("Get", ctx, "ana@example.com").Return(nil, domain.ErrNotFound)
	d.pending.On("Put", ctx, "ana@example.com", mock.AnythingOfType("*domain.PendingSession")).Return(nil)
	d.primary.On("Send", ctx, mock.AnythingOfType("*mail.Message")).Return(nil)
	d.limiter.On("RecordSend", ctx, "ana@example.com").Return(nil)

	err := svc.SendCode(ctx, "  Ana@Example.com ")
	require.NoError(t, err)
	d.users.AssertExpectations(t)
	d.limiter.AssertExpectations(t)
	d.primary.AssertExpectations(t)
}

func TestSendCode_InvalidEmail(t *testing.T) {
	svc, _ := newService()

	err := svc.SendCode(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, domain.ErrNoEmail)
}

func TestSendCode_NotRegistered(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.limiter.On("CanSend", ctx, "ghost@example.com").Return(nil)
	d.users.On("GetByEmail", ctx, "ghost@example.com").
		Return(nil, domain.ErrNotRegistered)

	err := svc.SendCode(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotRegistered)
}

func TestSendCode_AccessDenied(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.limiter.On("CanSend", ctx, "ana@example.com").Return(nil)
	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(&domain.UserRecord{Email: "ana@example.com", Access: "blocked"}, nil)

	err := svc.SendCode(ctx, "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	d.users.AssertNotCalled(t, "SetAuthCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_AccessPending(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.limiter.On("CanSend", ctx, "ana@example.com").Return(nil)
	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(&domain.UserRecord{Email: "ana@example.com", Access: "pending"}, nil)

	err := svc.SendCode(ctx, "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrAccessPending)
}

func TestSendCode_RateLimited(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.limiter.On("CanSend", ctx, "ana@example.com").Return(domain.ErrRateLimited)

	err := svc.SendCode(ctx, "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	d.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestSendCode_EmailFailed(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").Return(grantedUser("ana@example.com"), nil)
	d.limiter.On("CanSend", ctx, "ana@example.com").Return(nil)
	d.users.On("SetAuthCode", ctx, "ana@example.com", mock.Anything, mock.Anything).Return(nil)
	d.pending.On("Get", ctx, "ana@example.com").Return(nil, domain.ErrNotFound)
	d.pending.On("Put", ctx, "ana@example.com", mock.Anything).Return(nil)
	d.primary.On("Send", ctx, mock.Anything).Return(errors.New("smtp down"))

	err := svc.SendCode(ctx, "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrEmailFailed)
	d.limiter.AssertNotCalled(t, "RecordSend", mock.Anything, mock.Anything)
}

func TestSendCode_SecondaryChannelFallback(t *testing.T) {
	svc, d := newService()
	secondary := &mockSender{}
	svc.secondary = secondary
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").Return(grantedUser("ana@example.com"), nil)
	d.limiter.On("CanSend", ctx, "ana@example.com").Return(nil)
	d.users.On("SetAuthCode", ctx, "ana@example.com", mock.Anything, mock.Anything).Return(nil)
	d.pending.On("Get", ctx, "ana@example.com").Return(nil, domain.ErrNotFound)
	d.pending.On("Put", ctx, "ana@example.com", mock.Anything).Return(nil)
	d.primary.On("Send", ctx, mock.Anything).Return(errors.New("smtp down"))
	secondary.On("Send", ctx, mock.Anything).Return(nil)
	d.limiter.On("RecordSend", ctx, "ana@example.com").Return(nil)

	err := svc.SendCode(ctx, "ana@example.com")
	require.NoError(t, err)
	secondary.AssertExpectations(t)
}

// --- VerifyCode ---

func issuedUser(email, code string, issuedAgo time.Duration, attempts int) *domain.UserRecord {
	issuedAt := time.Now().UTC().Add(-issuedAgo)
	return &domain.UserRecord{
		Email:        email,
		DisplayName:  "Ana",
		Access:       "granted",
		AuthCode:     code,
		CodeIssuedAt: &issuedAt,
		AttemptCount: attempts,
	}
}

func TestVerifyCode_Success_UsesPendingSession(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(issuedUser("ana@example.com", "ABC23", time.Minute, 0), nil)
	d.pending.On("Get", ctx, "ana@example.com").Return(&domain.PendingSession{
		Token:        "tok-123",
		DisplayName:  "Ana",
		DashboardURL: "https://dash.example.com?token=tok-123",
	}, nil)
	d.pending.On("Delete", ctx, "ana@example.com").Return(nil)
	d.sessions.On("Put", ctx, mock.MatchedBy(func(s *domain.Session) bool {
		return s.Token == "tok-123" && s.Email == "ana@example.com"
	})).Return(nil)
	d.users.On("ClearAuthCode", ctx, "ana@example.com", mock.AnythingOfType("time.Time")).Return(nil)

	res, err := svc.VerifyCode(ctx, "ana@example.com", "abc23")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", res.Token)
	assert.Equal(t, "https://dash.example.com?token=tok-123", res.DashboardURL)
	d.pending.AssertExpectations(t)
	d.sessions.AssertExpectations(t)
}

func TestVerifyCode_Success_MintsTokenWhenPendingGone(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(issuedUser("ana@example.com", "ABC23", time.Minute, 0), nil)
	d.pending.On("Get", ctx, "ana@example.com").Return(nil, domain.ErrNotFound)
	d.sessions.On("Put", ctx, mock.AnythingOfType("*domain.Session")).Return(nil)
	d.users.On("ClearAuthCode", ctx, "ana@example.com", mock.Anything).Return(nil)

	res, err := svc.VerifyCode(ctx, "ana@example.com", "ABC23")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Contains(t, res.DashboardURL, "?token="+res.Token)
}

func TestVerifyCode_MissingInput(t *testing.T) {
	svc, _ := newService()

	_, err := svc.VerifyCode(context.Background(), "", "ABC23")
	assert.ErrorIs(t, err, domain.ErrMissingInput)

	_, err = svc.VerifyCode(context.Background(), "ana@example.com", "  ")
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestVerifyCode_WrongCodeConsumesAttempt(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(issuedUser("ana@example.com", "ABC23", time.Minute, 1), nil)
	d.users.On("IncrementAttempts", ctx, "ana@example.com").Return(nil)

	_, err := svc.VerifyCode(ctx, "ana@example.com", "WRONG")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	var invalid *domain.InvalidCodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.AttemptsLeft)
	d.users.AssertExpectations(t)
}

func TestVerifyCode_MaxAttemptsCheckedBeforeCompare(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	// Even the right code is rejected once the record is locked.
	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(issuedUser("ana@example.com", "ABC23", time.Minute, 3), nil)

	_, err := svc.VerifyCode(ctx, "ana@example.com", "ABC23")
	assert.ErrorIs(t, err, domain.ErrMaxAttempts)
	d.users.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}

func TestVerifyCode_ExpiredCodeConsumesNoAttempt(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(issuedUser("ana@example.com", "ABC23", 11*time.Minute, 0), nil)

	_, err := svc.VerifyCode(ctx, "ana@example.com", "ABC23")
	assert.ErrorIs(t, err, domain.ErrCodeExpired)
	d.users.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}

func TestVerifyCode_NoCodeIssued(t *testing.T) {
	svc, d := newService()
	ctx := context.Background()

	d.users.On("GetByEmail", ctx, "ana@example.com").
		Return(grantedUser("ana@example.com"), nil)

	_, err := svc.VerifyCode(ctx, "ana@example.com", "ABC23")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
	d.users.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}
