package captcha

import (
	"context"
	"time"
)

// Rand 随机源。*math/rand.Rand 满足该接口。
type Rand interface {
	Intn(n int) int
	Perm(n int) []int
}

// ProfileSource 按名称提供验证码配置
type ProfileSource interface {
	Profile(name string) (Profile, error)
}

// Generator 创建验证码挑战
type Generator interface {
	// Generate 按配置名渲染一张验证码，Result.Code 即答案
	Generate(ctx context.Context, profile string) (Result, error)
}

// Store 管理验证码持久化
type Store interface {
	// Save 保存验证码答案
	Save(ctx context.Context, id string, answer string, ttl time.Duration) error

	// Get 获取验证码答案，不存在返回 ErrCaptchaNotFound，过期返回 ErrCaptchaExpired
	Get(ctx context.Context, id string) (answer string, err error)

	// Delete 删除验证码
	Delete(ctx context.Context, id string) error

	// Exists 检查验证码是否存在
	Exists(ctx context.Context, id string) (bool, error)
}

// RateLimiter 防止滥用
type RateLimiter interface {
	// AllowGenerate 检查用户是否可以生成新验证码
	AllowGenerate(ctx context.Context, identifier string) error

	// AllowVerify 检查用户是否可以验证（处理最大尝试次数）
	AllowVerify(ctx context.Context, identifier string) error

	// RecordFailure 记录验证失败
	RecordFailure(ctx context.Context, identifier string) error

	// AttemptsLeft 剩余验证次数
	AttemptsLeft(ctx context.Context, identifier string) (int, error)

	// Reset 清除标识符的限流记录（成功验证后）
	Reset(ctx context.Context, identifier string) error
}

// Service 编排验证码操作
type Service interface {
	// Generate 生成验证码
	Generate(ctx context.Context, profile string, identifier string) (*CaptchaData, error)

	// Verify 验证验证码
	Verify(ctx context.Context, id string, answer string, identifier string) (*VerifyResult, error)
}
