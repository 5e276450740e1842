package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// SecurityConfig 安全相关中间件配置
type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors" yaml:"cors"`
	// Headers 开启后写入 nosniff 等安全响应头
	Headers bool `mapstructure:"headers" yaml:"headers"`
	// MaxBodyBytes 请求体上限，0 表示不限制
	MaxBodyBytes int64 `mapstructure:"max-body-bytes" yaml:"max-body-bytes"`
}

// CORSConfig 验证码通常嵌在其他站点的登录页中
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed-origins" yaml:"allowed-origins"`
	AllowedHeaders   []string `mapstructure:"allowed-headers" yaml:"allowed-headers"`
	AllowCredentials bool     `mapstructure:"allow-credentials" yaml:"allow-credentials"`
	MaxAge           int      `mapstructure:"max-age" yaml:"max-age"`
}

var defaultHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// Security 按配置组合请求体限制、CORS 与安全头
func Security(cfg SecurityConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := next
		if cfg.MaxBodyBytes > 0 {
			h = sizeLimit(cfg.MaxBodyBytes, h)
		}
		if cfg.CORS.Enabled {
			h = cors(cfg.CORS, h)
		}
		if cfg.Headers {
			h = secureHeaders(h)
		}
		return h
	}
}

func sizeLimit(limit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > limit {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

func cors(cfg CORSConfig, next http.Handler) http.Handler {
	// 暴露验证码 ID 头，前端才能读到
	exposed := strings.Join([]string{"X-Captcha-Id", TraceIDHeader}, ", ")
	headers := strings.Join(append([]string{"Content-Type"}, cfg.AllowedHeaders...), ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := slices.Contains(cfg.AllowedOrigins, "*") || slices.Contains(cfg.AllowedOrigins, origin)
		if !allowed {
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}

		h := w.Header()
		if cfg.AllowCredentials || !slices.Contains(cfg.AllowedOrigins, "*") {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", exposed)

		// 预检请求
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range defaultHeaders {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}
