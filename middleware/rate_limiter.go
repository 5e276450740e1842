package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/leeforge/captcha/captcha"
	"github.com/leeforge/captcha/http/responder"
	"github.com/leeforge/captcha/logging"
)

// BackendAdapter 限流后端适配器（固定窗口计数）
type BackendAdapter interface {
	// Increment 计数加一并返回窗口内的当前值，窗口从首次计数开始
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	GetUsage(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

type windowCount struct {
	count     int
	expiresAt time.Time
}

// MemoryBackend 进程内后端
type MemoryBackend struct {
	mu    sync.Mutex
	store map[string]windowCount
	now   func() time.Time
}

// NewMemoryBackend 创建内存后端
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		store: make(map[string]windowCount),
		now:   time.Now,
	}
}

// Increment 增加计数
func (b *MemoryBackend) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	wc, ok := b.store[key]
	if !ok || !now.Before(wc.expiresAt) {
		wc = windowCount{expiresAt: now.Add(window)}
	}
	wc.count++
	b.store[key] = wc
	return wc.count, nil
}

// GetUsage 获取使用量
func (b *MemoryBackend) GetUsage(_ context.Context, key string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wc, ok := b.store[key]
	if !ok {
		return 0, nil
	}
	if !b.now().Before(wc.expiresAt) {
		delete(b.store, key)
		return 0, nil
	}
	return wc.count, nil
}

// Reset 重置计数
func (b *MemoryBackend) Reset(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.store, key)
	return nil
}

// RedisBackend INCR + EXPIRE 实现的固定窗口
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend 创建 Redis 后端
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) key(key string) string { return b.prefix + key }

// Increment 增加计数，首次计数时设置过期时间
func (b *RedisBackend) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	k := b.key(key)
	n, err := b.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := b.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

// GetUsage 获取使用量
func (b *RedisBackend) GetUsage(ctx context.Context, key string) (int, error) {
	n, err := b.client.Get(ctx, b.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Reset 重置计数
func (b *RedisBackend) Reset(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.key(key)).Err()
}

// LimitConfig 验证码限流配置，limit 为 0 表示不限制
type LimitConfig struct {
	GenerateLimit  int
	GenerateWindow time.Duration
	MaxAttempts    int
	AttemptWindow  time.Duration
}

// LimitConfigFrom 从服务配置中提取限流参数
func LimitConfigFrom(cfg captcha.Config) LimitConfig {
	return LimitConfig{
		GenerateLimit:  cfg.GenerateLimit,
		GenerateWindow: cfg.GenerateWindow,
		MaxAttempts:    cfg.MaxAttempts,
		AttemptWindow:  cfg.AttemptWindow,
	}
}

// CaptchaLimiter 实现 captcha.RateLimiter
type CaptchaLimiter struct {
	backend BackendAdapter
	config  LimitConfig
}

var _ captcha.RateLimiter = (*CaptchaLimiter)(nil)

// NewCaptchaLimiter 创建验证码限流器
func NewCaptchaLimiter(backend BackendAdapter, config LimitConfig) *CaptchaLimiter {
	return &CaptchaLimiter{backend: backend, config: config}
}

func generateKey(identifier string) string { return "rate:generate:" + identifier }
func attemptKey(identifier string) string  { return "rate:attempt:" + identifier }

// AllowGenerate 每次调用都会计数
func (l *CaptchaLimiter) AllowGenerate(ctx context.Context, identifier string) error {
	if l.config.GenerateLimit <= 0 {
		return nil
	}
	n, err := l.backend.Increment(ctx, generateKey(identifier), l.config.GenerateWindow)
	if err != nil {
		return err
	}
	if n > l.config.GenerateLimit {
		return captcha.ErrRateLimitExceeded.
			WithDetail("identifier", identifier).
			WithDetail("limit", l.config.GenerateLimit)
	}
	return nil
}

// AllowVerify 失败次数达到上限后拒绝
func (l *CaptchaLimiter) AllowVerify(ctx context.Context, identifier string) error {
	if l.config.MaxAttempts <= 0 {
		return nil
	}
	used, err := l.backend.GetUsage(ctx, attemptKey(identifier))
	if err != nil {
		return err
	}
	if used >= l.config.MaxAttempts {
		return captcha.ErrRateLimitExceeded.
			WithDetail("identifier", identifier).
			WithDetail("max_attempts", l.config.MaxAttempts)
	}
	return nil
}

// RecordFailure 记录一次验证失败
func (l *CaptchaLimiter) RecordFailure(ctx context.Context, identifier string) error {
	if l.config.MaxAttempts <= 0 {
		return nil
	}
	_, err := l.backend.Increment(ctx, attemptKey(identifier), l.config.AttemptWindow)
	return err
}

// AttemptsLeft 不限制时返回 -1
func (l *CaptchaLimiter) AttemptsLeft(ctx context.Context, identifier string) (int, error) {
	if l.config.MaxAttempts <= 0 {
		return -1, nil
	}
	used, err := l.backend.GetUsage(ctx, attemptKey(identifier))
	if err != nil {
		return 0, err
	}
	return max(l.config.MaxAttempts-used, 0), nil
}

// Reset 只清除失败计数，生成限流窗口保持不变
func (l *CaptchaLimiter) Reset(ctx context.Context, identifier string) error {
	return l.backend.Reset(ctx, attemptKey(identifier))
}

// KeyFunc 从请求中提取限流键
type KeyFunc func(r *http.Request) string

// ClientKey 使用 ClientMiddleware 写入的客户端标识
func ClientKey(r *http.Request) string {
	if c := logging.GetClient(r.Context()); c != "" {
		return c
	}
	return "anonymous"
}

// Middleware 按 keyFunc 做固定窗口限流，limit 为 0 时直接放行
func Middleware(backend BackendAdapter, name string, limit int, window time.Duration, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ClientKey
	}
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, err := backend.Increment(r.Context(), "rate:"+name+":"+keyFunc(r), window)
			if err != nil {
				logging.WithContext(logging.FromContext(r.Context()), r.Context()).
					WithError(err).Error("rate limit backend failed")
				responder.InternalServerError(w, r, "rate limit unavailable")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-n, 0)))
			if n > limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				responder.TooManyRequests(w, r, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
