package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

// RequestLogger writes one access log line per request through zap.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				kv := []interface{}{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chimw.GetReqID(r.Context()),
				}
				switch {
				case status >= 500:
					log.Error("http request", kv...)
				case status >= 400:
					log.Warn("http request", kv...)
				default:
					log.Info("http request", kv...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
