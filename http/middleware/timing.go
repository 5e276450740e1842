package middleware

import (
	"context"
	"net/http"
	"time"
)

type timingContextKey struct{}

// TimingMiddleware records request start time for calculating processing duration
func TimingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), timingContextKey{}, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestDuration returns milliseconds since the request started, 0 when unknown.
func GetRequestDuration(ctx context.Context) int64 {
	if startTime, ok := ctx.Value(timingContextKey{}).(time.Time); ok {
		return time.Since(startTime).Milliseconds()
	}
	return 0
}
