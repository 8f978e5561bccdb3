package middleware

import (
	"net/http"
	"time"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
)

// Health checks and metric scrapes arrive every few seconds and stay out of the
// access log.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// AccessLog attaches a request-scoped logger carrying the request id and
// writes one line per completed request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		if id := RequestIDFromContext(r.Context()); id != "" {
			log = log.With("request_id", id)
		}
		r = r.WithContext(logging.WithLogger(r.Context(), log))

		if quietPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		log.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
