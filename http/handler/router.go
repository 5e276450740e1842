package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leeforge/captcha/captcha"
	"github.com/leeforge/captcha/http/middleware"
	"github.com/leeforge/captcha/http/responder"
	"github.com/leeforge/captcha/logging"
	"github.com/leeforge/captcha/metrics"
	ratelimit "github.com/leeforge/captcha/middleware"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Service captcha.Service
	Logger  logging.Logger
	Metrics *metrics.Collector

	// RateBackend 为空时不做接口级限流
	RateBackend ratelimit.BackendAdapter
	RateLimit   int
	RateWindow  time.Duration
	TrustProxy  bool
	Security    middleware.SecurityConfig
}

// NewRouter 组装中间件与全部路由
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.TimingMiddleware())
	r.Use(middleware.ClientMiddleware(cfg.TrustProxy))
	r.Use(logging.HTTPMiddleware(logger))
	r.Use(logging.RecoveryMiddleware(logger))
	r.Use(middleware.Security(cfg.Security))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware(RoutePattern))
	}
	if cfg.RateBackend != nil {
		r.Use(ratelimit.Middleware(cfg.RateBackend, "http", cfg.RateLimit, cfg.RateWindow, ratelimit.ClientKey))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		responder.OK(w, r, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	NewCaptchaHandler(cfg.Service, logger).RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.NotFound(w, r, "")
	})
	return r
}

// RoutePattern 返回 chi 匹配到的路由模板，避免把验证码 ID 等参数写进指标标签
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
