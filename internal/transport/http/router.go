package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/analytics-dashboard-api/internal/application/auth"
	"github.com/analytics-dashboard-api/internal/application/report"
	"github.com/analytics-dashboard-api/internal/application/session"
	"github.com/analytics-dashboard-api/internal/application/version"
	"github.com/analytics-dashboard-api/internal/config"
	"github.com/analytics-dashboard-api/internal/infrastructure/dynamo"
	"github.com/analytics-dashboard-api/internal/infrastructure/mail"
	redisinfra "github.com/analytics-dashboard-api/internal/infrastructure/redis"
	s3infra "github.com/analytics-dashboard-api/internal/infrastructure/s3"
	"github.com/analytics-dashboard-api/internal/transport/http/handler"
	appmiddleware "github.com/analytics-dashboard-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.UserRepo
	SessionRepo  *dynamo.SessionRepo
	VersionRepo  *dynamo.VersionRepo
	SessionCache *redisinfra.SessionCache
	PendingRepo  *redisinfra.PendingRepo
	SendLimiter  *redisinfra.Limiter
	AssetStore   *s3infra.AssetStore
	Analytics    report.Analytics
	Mailer       mail.Sender
	BackupMailer mail.Sender // may be nil
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10. The action endpoint carries the
	// login flow, so it gets the per-IP guard.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	sessionStore := session.NewStore(deps.SessionCache, deps.SessionRepo)
	authSvc := auth.NewService(
		deps.UserRepo, deps.SendLimiter, deps.PendingRepo, sessionStore,
		deps.Mailer, deps.BackupMailer, cfg.DashboardURL,
	)
	reportSvc := report.NewService(deps.Analytics)
	versionSvc := version.NewService(deps.VersionRepo)

	healthH := handler.NewHealthHandler()
	actionsH := handler.NewActionsHandler(
		authSvc, sessionStore, reportSvc, versionSvc,
		deps.AssetStore, cfg.S3LogoKey,
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/actions", actionsH.Dispatch)
	})

	return r
}
