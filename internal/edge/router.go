package edge

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/analytics-dashboard-api/internal/config"
	appmiddleware "github.com/analytics-dashboard-api/internal/transport/http/middleware"
)

// NewRouter builds the edge proxy router. CORS admits the configured
// origins plus any *.pages.dev preview deployment.
func NewRouter(cfg *config.Config, proxy *Proxy) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return originAllowed(cfg.AllowedOrigins, origin)
		},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health-check", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	})
	r.Post("/api/*", proxy.Forward)

	return r
}

func originAllowed(allowed []string, origin string) bool {
	if strings.HasSuffix(origin, ".pages.dev") {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
