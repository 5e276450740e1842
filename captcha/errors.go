package captcha

import (
	"net/http"

	apperrors "github.com/leeforge/captcha/errors"
)

// 错误定义
var (
	ErrConfigNotFound = apperrors.Define(apperrors.ErrorTypeNotFound, "CAPTCHA_CONFIG_NOT_FOUND", "captcha profile not found", http.StatusNotFound)
	ErrInvalidLength  = apperrors.Define(apperrors.ErrorTypeValidation, "CAPTCHA_INVALID_LENGTH", "code length does not fit the charset", http.StatusBadRequest)
	ErrInvalidConfig  = apperrors.Define(apperrors.ErrorTypeValidation, "CAPTCHA_INVALID_CONFIG", "invalid captcha profile", http.StatusBadRequest)
	ErrFontLoad       = apperrors.Define(apperrors.ErrorTypeInternal, "CAPTCHA_FONT_LOAD", "failed to load font", http.StatusInternalServerError)
	ErrEncoding       = apperrors.Define(apperrors.ErrorTypeInternal, "CAPTCHA_ENCODING", "failed to encode image", http.StatusInternalServerError)

	ErrCaptchaNotFound   = apperrors.Define(apperrors.ErrorTypeNotFound, "CAPTCHA_NOT_FOUND", "captcha not found", http.StatusNotFound)              // 验证码不存在
	ErrCaptchaExpired    = apperrors.Define(apperrors.ErrorTypeBusiness, "CAPTCHA_EXPIRED", "captcha expired", http.StatusGone)                      // 验证码已过期
	ErrInvalidAnswer     = apperrors.Define(apperrors.ErrorTypeBusiness, "CAPTCHA_INVALID_ANSWER", "invalid answer", http.StatusBadRequest)          // 答案错误
	ErrRateLimitExceeded = apperrors.Define(apperrors.ErrorTypeRateLimit, "CAPTCHA_RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests) // 超过限流
	ErrGenerationFailed  = apperrors.Define(apperrors.ErrorTypeInternal, "CAPTCHA_GENERATION_FAILED", "captcha generation failed", http.StatusInternalServerError)
)
