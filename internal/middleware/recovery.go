package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/handler"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
)

// RecoverPanics turns a handler panic into the webhook failure body so
// CartPanda still gets a 200. If the handler already started its response
// nothing more is written.
func RecoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newResponseRecorder(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			metrics.PanicsRecoveredTotal.Inc()
			logging.FromContext(r.Context()).Error("panic recovered",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", v,
				"response_started", rec.written,
				"stack", string(debug.Stack()),
			)
			if !rec.written {
				handler.RespondFailure(rec, domain.ErrInternal, nil)
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
