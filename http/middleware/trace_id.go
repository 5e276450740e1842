package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/leeforge/captcha/logging"
)

// TraceIDHeader is the HTTP header name for trace ID
const TraceIDHeader = "X-Trace-ID"

// TraceIDMiddleware adds a trace ID to each request.
// An incoming X-Trace-ID header is reused, otherwise a UUID is generated.
func TraceIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" || len(traceID) > 128 {
				traceID = uuid.New().String()
			}

			w.Header().Set(TraceIDHeader, traceID)
			ctx := logging.SetTraceID(r.Context(), traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTraceIDFromRequest retrieves the trace ID from request context
func GetTraceIDFromRequest(r *http.Request) string {
	return logging.GetTraceID(r.Context())
}
