package handler

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeforge/captcha/cache"
	"github.com/leeforge/captcha/captcha"
	"github.com/leeforge/captcha/json"
	"github.com/leeforge/captcha/metrics"
	ratelimit "github.com/leeforge/captcha/middleware"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    int             `json:"code"`
		Reason  string          `json:"reason"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		TraceId string `json:"traceId"`
	} `json:"meta"`
}

type testServer struct {
	router  http.Handler
	store   *cache.MemoryStore
	metrics *metrics.Collector
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	collector := metrics.NewCollector()
	engine := captcha.NewEngine(
		captcha.WithProfiles(captcha.StaticProfiles{"default": {Length: 4}}),
		captcha.WithMetrics(collector),
	)
	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })

	cfg := captcha.DefaultConfig()
	svc := captcha.NewService(cfg, engine, store,
		captcha.WithRateLimiter(ratelimit.NewCaptchaLimiter(ratelimit.NewMemoryBackend(), ratelimit.LimitConfigFrom(cfg))),
		captcha.WithServiceMetrics(collector),
	)

	rc := RouterConfig{Service: svc, Metrics: collector}
	if rateLimit > 0 {
		rc.RateBackend = ratelimit.NewMemoryBackend()
		rc.RateLimit = rateLimit
		rc.RateWindow = time.Minute
	}
	return &testServer{router: NewRouter(rc), store: store, metrics: collector}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestGenerateJSON(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(http.MethodGet, "/captcha/default", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.NotEmpty(t, env.Meta.TraceId)

	var data captcha.CaptchaData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "default", data.Profile)
	assert.True(t, strings.HasPrefix(data.Content, captcha.DataURIPrefix))

	answer, err := s.store.Get(context.Background(), data.ID)
	require.NoError(t, err)
	assert.Len(t, answer, 4)
}

func TestGenerateUnknownProfile(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(http.MethodGet, "/captcha/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CAPTCHA_CONFIG_NOT_FOUND", env.Error.Reason)
}

func TestImageEndpoint(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(http.MethodGet, "/captcha/default/image", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	id := rec.Header().Get(CaptchaIDHeader)
	require.NotEmpty(t, id)
	ok, err := s.store.Exists(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 162, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestVerifyFlow(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(http.MethodGet, "/captcha/default/image", "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(CaptchaIDHeader)
	answer, err := s.store.Get(context.Background(), id)
	require.NoError(t, err)

	wrong := s.do(http.MethodPost, "/captcha/verify", `{"id":"`+id+`","answer":"~~~~"}`)
	require.Equal(t, http.StatusOK, wrong.Code)
	var result captcha.VerifyResult
	require.NoError(t, json.Unmarshal(decode(t, wrong).Data, &result))
	assert.False(t, result.Valid)
	assert.Equal(t, captcha.ReasonMismatch, result.FailureReason)
	assert.Equal(t, 4, result.AttemptsLeft)

	ok := s.do(http.MethodPost, "/captcha/verify", `{"id":"`+id+`","answer":"`+strings.ToLower(answer)+`"}`)
	require.Equal(t, http.StatusOK, ok.Code)
	result = captcha.VerifyResult{}
	require.NoError(t, json.Unmarshal(decode(t, ok).Data, &result))
	assert.True(t, result.Valid)

	again := s.do(http.MethodPost, "/captcha/verify", `{"id":"`+id+`","answer":"`+answer+`"}`)
	result = captcha.VerifyResult{}
	require.NoError(t, json.Unmarshal(decode(t, again).Data, &result))
	assert.False(t, result.Valid)
	assert.Equal(t, captcha.ReasonNotFound, result.FailureReason)
}

func TestVerifyValidation(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(http.MethodPost, "/captcha/verify", `{"id":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	var fields []struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(env.Error.Details, &fields))
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Field)
	assert.Equal(t, "answer", fields[1].Field)

	rec = s.do(http.MethodPost, "/captcha/verify", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPRateLimit(t *testing.T) {
	s := newTestServer(t, 1)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/healthz", "").Code)
}

func TestMetricsUseRoutePattern(t *testing.T) {
	s := newTestServer(t, 0)
	s.do(http.MethodGet, "/captcha/default", "")

	m, ok := s.metrics.GetMetric("http_requests_total", map[string]string{
		"method": "GET",
		"route":  "/captcha/{profile}",
		"status": "200",
	})
	require.True(t, ok)
	assert.Equal(t, float64(1), m.Value)

	rec := s.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "captcha_renders_total")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(http.MethodGet, "/nope/at/all", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
