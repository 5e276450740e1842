package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/leeforge/captcha/logging"
)

// ClientHeader 调用方可显式声明标识
const ClientHeader = "X-Client-ID"

// ClientMiddleware stores the caller identifier used for rate limiting and logs.
// With trustProxy the first X-Forwarded-For hop wins over RemoteAddr.
func ClientMiddleware(trustProxy bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.SetClient(r.Context(), ClientFromRequest(r, trustProxy))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromRequest resolves the caller identifier without touching the context.
func ClientFromRequest(r *http.Request, trustProxy bool) string {
	if id := strings.TrimSpace(r.Header.Get(ClientHeader)); id != "" {
		return id
	}
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GetClient 读取 ClientMiddleware 写入的标识
func GetClient(r *http.Request) string {
	return logging.GetClient(r.Context())
}
