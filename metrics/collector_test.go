package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stdjson "encoding/json"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKeyIsStable(t *testing.T) {
	a := buildKey("x", map[string]string{"b": "2", "a": "1"})
	b := buildKey("x", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, "x:a=1:b=2", a)
	assert.Equal(t, a, b)
	assert.Equal(t, "x", buildKey("x", nil))
}

func TestRecordRender(t *testing.T) {
	c := NewCollector()
	c.RecordRender("login", nil, 3*time.Millisecond)
	c.RecordRender("login", nil, 5*time.Millisecond)
	c.RecordRender("login", errors.New("font"), time.Millisecond)

	ok, found := c.GetMetric("captcha_renders_total", map[string]string{"profile": "login", "success": "true"})
	require.True(t, found)
	assert.Equal(t, float64(2), ok.Value)

	failed, found := c.GetMetric("captcha_renders_total", map[string]string{"profile": "login", "success": "false"})
	require.True(t, found)
	assert.Equal(t, float64(1), failed.Value)

	hist, found := c.GetMetric("captcha_render_duration_ms", map[string]string{"profile": "login"})
	require.True(t, found)
	assert.Equal(t, []float64{3, 5, 1}, hist.History)
}

func TestHistogramHistoryIsBounded(t *testing.T) {
	c := NewCollector()
	for i := 0; i < historySize+20; i++ {
		c.ObserveHistogram("h", float64(i), nil)
	}
	m, _ := c.GetMetric("h", nil)
	assert.Len(t, m.History, historySize)
	assert.Equal(t, float64(historySize+19), m.Value)
}

func TestMiddlewareAndHandler(t *testing.T) {
	c := NewCollector()
	h := c.Middleware(func(*http.Request) string { return "/captcha/{profile}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/captcha/login", nil))

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var out map[string]Metric
	require.NoError(t, stdjson.Unmarshal(rr.Body.Bytes(), &out))
	m, ok := out["http_requests_total:method=GET:route=/captcha/{profile}:status=201"]
	require.True(t, ok, "keys: %v", out)
	assert.Equal(t, float64(1), m.Value)
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.RecordVerify(false, "mismatch")
	c.Reset()
	assert.Empty(t, c.GetMetrics())
}
