package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leeforge/captcha/json"
)

const historySize = 100

// Collector 指标收集器
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
}

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	History   []float64         `json:"history,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
	}
}

// IncCounter 增加计数器
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter 增加计数器值
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.get(name, "counter", labels)
	m.Value += value
	m.Timestamp = time.Now().Unix()
}

// ObserveHistogram 观察直方图，Value 为最近一次观测值
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.get(name, "histogram", labels)
	m.Value = value
	m.History = append(m.History, value)
	if len(m.History) > historySize {
		m.History = m.History[len(m.History)-historySize:]
	}
	m.Timestamp = time.Now().Unix()
}

// get must be called with c.mu held.
func (c *Collector) get(name, typ string, labels map[string]string) *Metric {
	key := buildKey(name, labels)
	if m, ok := c.metrics[key]; ok {
		return m
	}
	m := &Metric{Name: name, Type: typ, Labels: labels}
	c.metrics[key] = m
	return m
}

// RecordRender 记录一次验证码渲染
func (c *Collector) RecordRender(profile string, err error, duration time.Duration) {
	labels := map[string]string{
		"profile": profile,
		"success": strconv.FormatBool(err == nil),
	}
	c.IncCounter("captcha_renders_total", labels)
	c.ObserveHistogram("captcha_render_duration_ms", float64(duration.Microseconds())/1000, map[string]string{"profile": profile})
}

// RecordVerify 记录一次验证结果
func (c *Collector) RecordVerify(valid bool, reason string) {
	labels := map[string]string{"valid": strconv.FormatBool(valid)}
	if reason != "" {
		labels["reason"] = reason
	}
	c.IncCounter("captcha_verifications_total", labels)
}

// RecordRequest 记录 HTTP 请求
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	labels := map[string]string{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}

	c.IncCounter("http_requests_total", labels)
	c.ObserveHistogram("http_request_duration_ms", float64(duration.Microseconds())/1000, labels)
}

// buildKey 构建指标键，标签按名称排序保证稳定
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString(":")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}

// GetMetrics 获取所有指标的副本
func (c *Collector) GetMetrics() map[string]Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Metric, len(c.metrics))
	for k, v := range c.metrics {
		cp := *v
		cp.History = append([]float64(nil), v.History...)
		result[k] = cp
	}
	return result
}

// GetMetric 获取单个指标
func (c *Collector) GetMetric(name string, labels map[string]string) (Metric, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.metrics[buildKey(name, labels)]
	if !ok {
		return Metric{}, false
	}
	return *m, true
}

// Reset 重置指标
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// Middleware HTTP 指标中间件。route 解析请求对应的路由模板，避免路径参数撑爆指标键。
func (c *Collector) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			name := r.URL.Path
			if route != nil {
				if p := route(r); p != "" {
					name = p
				}
			}
			c.RecordRequest(r.Method, name, ww.statusCode, time.Since(start))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Handler 以 JSON 输出全部指标
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.GetMetrics())
	})
}
