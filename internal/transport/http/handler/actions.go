package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/analytics-dashboard-api/internal/application/auth"
	"github.com/analytics-dashboard-api/internal/domain"
)

// AuthService drives the one-time-code login flow.
type AuthService interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*auth.VerifyResult, error)
}

// SessionService resolves and revokes session tokens.
type SessionService interface {
	Validate(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// ReportService assembles the dashboard payload.
type ReportService interface {
	FetchAll(ctx context.Context, period domain.Period) *domain.DashboardData
}

// VersionService answers version probes and bumps the counter on deploy.
type VersionService interface {
	AppVersion(ctx context.Context) (string, error)
	DeploymentVersion(ctx context.Context) (string, error)
	Bump(ctx context.Context) (string, error)
}

// AssetService serves branding assets as data URLs.
type AssetService interface {
	FetchBase64(ctx context.Context, key string) (string, error)
}

// publicActions need no session: the login flow itself plus the version
// probe the login page shows.
var publicActions = map[string]bool{
	"validateSession": true,
	"sendAuthCode":    true,
	"verifyAuthCode":  true,
	"getAppVersion":   true,
}

type actionParams struct {
	Email  string `json:"email"`
	Code   string `json:"code"`
	Period string `json:"period"`
	Token  string `json:"token"`
}

type actionRequest struct {
	Action string       `json:"action"`
	Token  string       `json:"token"`
	Params actionParams `json:"params"`
}

// ActionsHandler dispatches the single-endpoint action protocol the
// dashboard frontend speaks.
type ActionsHandler struct {
	auth     AuthService
	sessions SessionService
	reports  ReportService
	versions VersionService
	assets   AssetService
	logoKey  string
}

func NewActionsHandler(auth AuthService, sessions SessionService, reports ReportService, versions VersionService, assets AssetService, logoKey string) *ActionsHandler {
	return &ActionsHandler{
		auth:     auth,
		sessions: sessions,
		reports:  reports,
		versions: versions,
		assets:   assets,
		logoKey:  logoKey,
	}
}

func (h *ActionsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeActionError(w, "SYSTEM_ERROR")
		return
	}
	ctx := r.Context()

	if !publicActions[req.Action] {
		if _, err := h.sessions.Validate(ctx, req.Token); err != nil {
			writeActionError(w, "INVALID_SESSION")
			return
		}
	}

	switch req.Action {
	case "sendAuthCode":
		h.sendAuthCode(ctx, w, req.Params.Email)
	case "verifyAuthCode":
		h.verifyAuthCode(ctx, w, req.Params.Email, req.Params.Code)
	case "validateSession":
		h.validateSession(ctx, w, firstNonEmpty(req.Params.Token, req.Token))
	case "signOut":
		h.signOut(ctx, w, firstNonEmpty(req.Params.Token, req.Token))
	case "fetchAllDashboardData":
		writeAction(w, h.reports.FetchAll(ctx, domain.NormalizePeriod(req.Params.Period)))
	case "getAppVersion":
		h.appVersion(ctx, w)
	case "getDeploymentVersion":
		h.deploymentVersion(ctx, w)
	case "bumpDeploymentVersion":
		h.bumpVersion(ctx, w)
	case "fetchLogoAsBase64":
		h.fetchLogo(ctx, w)
	default:
		writeActionError(w, "UNKNOWN_ACTION")
	}
}

func (h *ActionsHandler) sendAuthCode(ctx context.Context, w http.ResponseWriter, email string) {
	if err := h.auth.SendCode(ctx, email); err != nil {
		writeActionError(w, domain.ErrorCode(err))
		return
	}
	writeAction(w, messageEnvelope{Success: true, Message: fmt.Sprintf("Code sent to %s", email)})
}

func (h *ActionsHandler) verifyAuthCode(ctx context.Context, w http.ResponseWriter, email, code string) {
	res, err := h.auth.VerifyCode(ctx, email, code)
	if err != nil {
		env := errorEnvelope{Success: false, Error: domain.ErrorCode(err)}
		var invalid *domain.InvalidCodeError
		if errors.As(err, &invalid) {
			env.AttemptsLeft = &invalid.AttemptsLeft
		}
		writeAction(w, env)
		return
	}
	writeAction(w, verifyEnvelope{
		Success:      true,
		Name:         res.DisplayName,
		Token:        res.Token,
		DashboardURL: res.DashboardURL,
	})
}

func (h *ActionsHandler) validateSession(ctx context.Context, w http.ResponseWriter, token string) {
	sess, err := h.sessions.Validate(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.Error("session validation failed", "error", err)
		}
		writeAction(w, validateEnvelope{Valid: false})
		return
	}
	writeAction(w, validateEnvelope{Valid: true, Name: sess.DisplayName, Email: sess.Email})
}

func (h *ActionsHandler) signOut(ctx context.Context, w http.ResponseWriter, token string) {
	if token == "" {
		writeAction(w, messageEnvelope{Success: false})
		return
	}
	if err := h.sessions.Delete(ctx, token); err != nil {
		slog.Error("sign out failed", "error", err)
		writeAction(w, messageEnvelope{Success: false})
		return
	}
	writeAction(w, messageEnvelope{Success: true})
}

func (h *ActionsHandler) appVersion(ctx context.Context, w http.ResponseWriter) {
	v, err := h.versions.AppVersion(ctx)
	if err != nil {
		slog.Error("app version lookup failed", "error", err)
		writeActionError(w, "SYSTEM_ERROR")
		return
	}
	writeAction(w, v)
}

func (h *ActionsHandler) deploymentVersion(ctx context.Context, w http.ResponseWriter) {
	v, err := h.versions.DeploymentVersion(ctx)
	if err != nil {
		slog.Error("deployment version lookup failed", "error", err)
		writeActionError(w, "SYSTEM_ERROR")
		return
	}
	writeAction(w, v)
}

func (h *ActionsHandler) bumpVersion(ctx context.Context, w http.ResponseWriter) {
	v, err := h.versions.Bump(ctx)
	if err != nil {
		slog.Error("version bump failed", "error", err)
		writeActionError(w, "SYSTEM_ERROR")
		return
	}
	writeAction(w, v)
}

func (h *ActionsHandler) fetchLogo(ctx context.Context, w http.ResponseWriter) {
	dataURL, err := h.assets.FetchBase64(ctx, h.logoKey)
	if err != nil {
		slog.Error("logo fetch failed", "error", err)
		writeAction(w, nil)
		return
	}
	writeAction(w, dataURL)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
