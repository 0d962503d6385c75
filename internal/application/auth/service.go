package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/analytics-dashboard-api/internal/domain"
	"github.com/analytics-dashboard-api/internal/infrastructure/mail"
)

const (
	// CodeTTL is how long an issued code stays valid.
	CodeTTL = 10 * time.Minute

	// MaxAttempts locks the code after this many wrong guesses.
	MaxAttempts = 3
)

// UserDirectory is the directory of provisioned dashboard users.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	SetAuthCode(ctx context.Context, email, code string, issuedAt time.Time) error
	IncrementAttempts(ctx context.Context, email string) error
	ClearAuthCode(ctx context.Context, email string, lastLogin time.Time) error
}

// RateLimiter gates code sends per email.
type RateLimiter interface {
	CanSend(ctx context.Context, email string) error
	RecordSend(ctx context.Context, email string) error
}

// PendingStore holds sessions pre-built at send time, keyed by email.
type PendingStore interface {
	Put(ctx context.Context, email string, p *domain.PendingSession) error
	Get(ctx context.Context, email string) (*domain.PendingSession, error)
	Delete(ctx context.Context, email string) error
}

// SessionStore persists an authenticated session.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

// VerifyResult is what a successful verification hands back to the client.
type VerifyResult struct {
	Token        string
	DisplayName  string
	DashboardURL string
}

// Service implements the emailed one-time-code login flow.
type Service struct {
	users        UserDirectory
	limiter      RateLimiter
	pending      PendingStore
	sessions     SessionStore
	primary      mail.Sender
	secondary    mail.Sender // optional fallback channel, may be nil
	validate     *validator.Validate
	dashboardURL string
}

func NewService(users UserDirectory, limiter RateLimiter, pending PendingStore, sessions SessionStore, primary, secondary mail.Sender, dashboardURL string) *Service {
	return &Service{
		users:        users,
		limiter:      limiter,
		pending:      pending,
		sessions:     sessions,
		primary:      primary,
		secondary:    secondary,
		validate:     validator.New(),
		dashboardURL: dashboardURL,
	}
}

// SendCode issues a fresh code for a provisioned user and emails it.
// The rate limiter is consulted before any work and recorded only after
// the email has actually gone out, so failed sends don't burn the quota.
func (s *Service) SendCode(ctx context.Context, rawEmail string) error {
	email := normalizeEmail(rawEmail)
	if err := s.validate.Struct(&domain.SendCodeRequest{Email: email}); err != nil {
		return fmt.Errorf("invalid email: %w", domain.ErrNoEmail)
	}

	if err := s.limiter.CanSend(ctx, email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	switch user.AccessStatus() {
	case domain.AccessGranted:
	case domain.AccessDenied:
		return fmt.Errorf("user %s: %w", email, domain.ErrAccessDenied)
	default:
		return fmt.Errorf("user %s: %w", email, domain.ErrAccessPending)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.users.SetAuthCode(ctx, email, code, time.Now().UTC()); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	// Pre-building the session here lets verification answer without
	// minting anything. A store failure is not fatal; verification falls
	// back to minting a token on the spot.
	if err := s.storePending(ctx, email, user.DisplayName); err != nil {
		slog.Warn("pending session store failed", "email", email, "error", err)
	}

	if err := s.deliver(ctx, buildCodeEmail(email, user.DisplayName, code)); err != nil {
		return fmt.Errorf("deliver code: %w", domain.ErrEmailFailed)
	}

	if err := s.limiter.RecordSend(ctx, email); err != nil {
		slog.Warn("rate limit record failed", "email", email, "error", err)
	}
	return nil
}

// VerifyCode checks a submitted code and, on success, creates a session.
// The attempt cap is checked before comparing, a mismatch consumes an
// attempt, and expiry is only checked once the code matches.
func (s *Service) VerifyCode(ctx context.Context, rawEmail, rawCode string) (*VerifyResult, error) {
	email := normalizeEmail(rawEmail)
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if email == "" || code == "" {
		return nil, domain.ErrMissingInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user.AttemptCount >= MaxAttempts {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrMaxAttempts)
	}
	if user.AuthCode == "" || user.CodeIssuedAt == nil {
		return nil, fmt.Errorf("no code issued: %w", domain.ErrInvalidCode)
	}

	if code != user.AuthCode {
		if err := s.users.IncrementAttempts(ctx, email); err != nil {
			slog.Warn("attempt increment failed", "email", email, "error", err)
		}
		left := MaxAttempts - user.AttemptCount - 1
		if left < 0 {
			left = 0
		}
		return nil, &domain.InvalidCodeError{AttemptsLeft: left}
	}

	// A correct code past its window consumes no attempt.
	if time.Since(*user.CodeIssuedAt) > CodeTTL {
		return nil, fmt.Errorf("code issued at %s: %w",
			user.CodeIssuedAt.Format(time.RFC3339), domain.ErrCodeExpired)
	}

	now := time.Now().UTC()
	res := s.resolvePending(ctx, email, user.DisplayName)

	if err := s.sessions.Put(ctx, &domain.Session{
		Token:       res.Token,
		Email:       email,
		DisplayName: res.DisplayName,
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	if err := s.users.ClearAuthCode(ctx, email, now); err != nil {
		slog.Warn("clear auth code failed", "email", email, "error", err)
	}
	return res, nil
}

// storePending refreshes an existing pending session or creates a new one.
// Reusing the token keeps a resent code pointing at the same session.
func (s *Service) storePending(ctx context.Context, email, name string) error {
	if p, err := s.pending.Get(ctx, email); err == nil {
		p.DisplayName = name
		return s.pending.Put(ctx, email, p)
	}
	token := uuid.NewString()
	return s.pending.Put(ctx, email, &domain.PendingSession{
		Token:        token,
		DisplayName:  name,
		DashboardURL: s.dashboardURL + "?token=" + token,
	})
}

// resolvePending consumes the pre-built session if one survived, otherwise
// mints a fresh token.
func (s *Service) resolvePending(ctx context.Context, email, name string) *VerifyResult {
	if p, err := s.pending.Get(ctx, email); err == nil {
		if err := s.pending.Delete(ctx, email); err != nil {
			slog.Warn("pending session delete failed", "email", email, "error", err)
		}
		return &VerifyResult{Token: p.Token, DisplayName: p.DisplayName, DashboardURL: p.DashboardURL}
	}
	token := uuid.NewString()
	return &VerifyResult{
		Token:        token,
		DisplayName:  name,
		DashboardURL: s.dashboardURL + "?token=" + token,
	}
}

// deliver tries the primary channel, then the secondary if configured.
func (s *Service) deliver(ctx context.Context, msg *mail.Message) error {
	err := s.primary.Send(ctx, msg)
	if err == nil {
		return nil
	}
	slog.Warn("primary mail channel failed", "to", msg.To, "error", err)
	if s.secondary == nil {
		return err
	}
	if err2 := s.secondary.Send(ctx, msg); err2 != nil {
		slog.Error("secondary mail channel failed", "to", msg.To, "error", err2)
		return err
	}
	return nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
