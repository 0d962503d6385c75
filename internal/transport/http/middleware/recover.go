package middleware

import (
	"log/slog"
	"net/http"
)

// Recover converts a handler panic into the generic action failure
// envelope. Clients of the action protocol parse bodies, not statuses, so
// a bare 500 with an empty body would strand them.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "path", r.URL.Path, "panic", rec)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"error":"SYSTEM_ERROR"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
