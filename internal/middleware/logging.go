package middleware

import (
	"net/http"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := log.WithFields(log.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"ua":     r.Header.Get("User-Agent"),
			})
			if traceID := tracing.TraceID(r.Context()); traceID != "" {
				entry = entry.WithField("trace_id", traceID)
			}
			entry.Trace(" ====> request")
			next.ServeHTTP(w, r)
		})
	}
}
