package captcha

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/captcha/errors"
	"github.com/leeforge/captcha/logging"
	"github.com/leeforge/captcha/metrics"
)

const anonymous = "anonymous"

// DefaultService 基于 Generator、Store、RateLimiter 的验证码服务
type DefaultService struct {
	cfg       Config
	generator Generator
	store     Store
	limiter   RateLimiter
	logger    logging.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

var _ Service = (*DefaultService)(nil)

// ServiceOption 服务选项
type ServiceOption func(*DefaultService)

func WithRateLimiter(limiter RateLimiter) ServiceOption {
	return func(s *DefaultService) {
		s.limiter = limiter
	}
}

func WithServiceLogger(logger logging.Logger) ServiceOption {
	return func(s *DefaultService) {
		s.logger = logger
	}
}

func WithServiceMetrics(collector *metrics.Collector) ServiceOption {
	return func(s *DefaultService) {
		s.metrics = collector
	}
}

func withClock(now func() time.Time) ServiceOption {
	return func(s *DefaultService) {
		s.now = now
	}
}

func NewService(cfg Config, generator Generator, store Store, opts ...ServiceOption) *DefaultService {
	s := &DefaultService{
		cfg:       cfg,
		generator: generator,
		store:     store,
		logger:    logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate renders a captcha for profile and stores its answer under a new id.
func (s *DefaultService) Generate(ctx context.Context, profile string, identifier string) (*CaptchaData, error) {
	if profile == "" {
		profile = s.cfg.DefaultProfile
	}
	if identifier == "" {
		identifier = anonymous
	}
	log := logging.WithContext(s.logger, ctx).With(zap.String("profile", profile), zap.String("identifier", identifier))

	if s.limiter != nil {
		if err := s.limiter.AllowGenerate(ctx, identifier); err != nil {
			log.Warn("captcha.generate.limited", zap.Error(err))
			return nil, err
		}
	}

	res, err := s.generator.Generate(ctx, profile)
	if err != nil {
		log.Error("captcha.generate.failed", zap.Error(err))
		if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrInvalidLength) {
			return nil, err
		}
		return nil, ErrGenerationFailed.WithInnerError(err)
	}

	id := uuid.NewString()
	if err := s.store.Save(ctx, id, res.Code, s.cfg.TTL); err != nil {
		log.Error("captcha.store.save", zap.Error(err))
		return nil, ErrGenerationFailed.WithInnerError(err)
	}

	log.Info("captcha.generated", zap.String("id", id))
	return &CaptchaData{
		ID:        id,
		Profile:   profile,
		Content:   res.Base64,
		Mime:      res.Mime,
		ExpiresAt: s.now().Add(s.cfg.TTL),
		Image:     res.Image,
	}, nil
}

// Verify checks answer against the stored code. A correct answer consumes the captcha.
func (s *DefaultService) Verify(ctx context.Context, id string, answer string, identifier string) (*VerifyResult, error) {
	if id == "" {
		return nil, apperrors.NewInvalid("id", id, "captcha id is required")
	}
	if identifier == "" {
		identifier = anonymous
	}
	log := logging.WithContext(s.logger, ctx).With(zap.String("id", id), zap.String("identifier", identifier))

	if s.limiter != nil {
		if err := s.limiter.AllowVerify(ctx, identifier); err != nil {
			log.Warn("captcha.verify.limited", zap.Error(err))
			return nil, err
		}
	}

	expected, err := s.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrCaptchaNotFound):
		return s.reject(ctx, log, identifier, ReasonNotFound)
	case errors.Is(err, ErrCaptchaExpired):
		_ = s.store.Delete(ctx, id)
		return s.reject(ctx, log, identifier, ReasonExpired)
	case err != nil:
		log.Error("captcha.store.get", zap.Error(err))
		return nil, err
	}

	if !s.matches(expected, answer) {
		return s.reject(ctx, log, identifier, ReasonMismatch)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		log.Warn("captcha.store.delete", zap.Error(err))
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, identifier); err != nil {
			log.Warn("captcha.limiter.reset", zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordVerify(true, "")
	}

	log.Info("captcha.verified")
	return &VerifyResult{Valid: true}, nil
}

func (s *DefaultService) matches(expected, answer string) bool {
	answer = strings.TrimSpace(answer)
	if s.cfg.CaseSensitive {
		return expected == answer
	}
	return strings.EqualFold(expected, answer)
}

func (s *DefaultService) reject(ctx context.Context, log logging.Logger, identifier, reason string) (*VerifyResult, error) {
	result := &VerifyResult{Valid: false, FailureReason: reason}

	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, identifier); err != nil {
			log.Warn("captcha.limiter.record", zap.Error(err))
		}
		if left, err := s.limiter.AttemptsLeft(ctx, identifier); err == nil {
			result.AttemptsLeft = left
		}
	}
	if s.metrics != nil {
		s.metrics.RecordVerify(false, reason)
	}

	log.Warn("captcha.verify.rejected", zap.String("reason", reason), zap.Int("attempts_left", result.AttemptsLeft))
	return result, nil
}
