package httpadapter

import (
	"net/http"
	"time"

	"github.com/playdex/playdex-chat/internal/observability"
)

// withLogging wraps a handler and logs every request.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		observability.Logger().Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// withCORS adds basic CORS headers to allow calls from the mobile web view.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// chainMiddlewares applies multiple middlewares in order.
func chainMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
