package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leeforge/captcha/logging"
)

func capture(mw func(http.Handler) http.Handler, r *http.Request) (*httptest.ResponseRecorder, context.Context) {
	var got context.Context
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec, got
}

func TestTraceIDMiddlewareGenerates(t *testing.T) {
	rec, ctx := capture(TraceIDMiddleware(), httptest.NewRequest(http.MethodGet, "/", nil))

	id := logging.GetTraceID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Header().Get(TraceIDHeader))
}

func TestTraceIDMiddlewareReusesHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(TraceIDHeader, "abc-123")
	rec, ctx := capture(TraceIDMiddleware(), r)

	assert.Equal(t, "abc-123", logging.GetTraceID(ctx))
	assert.Equal(t, "abc-123", rec.Header().Get(TraceIDHeader))
}

func TestClientFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr", nil, false, "192.0.2.1"},
		{"forwarded ignored", map[string]string{"X-Forwarded-For": "10.0.0.1"}, false, "192.0.2.1"},
		{"forwarded trusted", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, true, "10.0.0.1"},
		{"real ip trusted", map[string]string{"X-Real-IP": "10.0.0.9"}, true, "10.0.0.9"},
		{"explicit id", map[string]string{ClientHeader: "device-7"}, true, "device-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientFromRequest(r, tt.trustProxy))
		})
	}
}

func TestClientMiddleware(t *testing.T) {
	_, ctx := capture(ClientMiddleware(false), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "192.0.2.1", logging.GetClient(ctx))
}

func TestGetRequestDuration(t *testing.T) {
	assert.Zero(t, GetRequestDuration(context.Background()))

	_, ctx := capture(TimingMiddleware(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.GreaterOrEqual(t, GetRequestDuration(ctx), int64(0))
}
