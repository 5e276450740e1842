package captcha

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/captcha/logging"
	"github.com/leeforge/captcha/metrics"
)

// Engine 验证码图片合成引擎。Engine 本身无状态，可并发使用。
type Engine struct {
	fonts    *FontRegistry
	resolver *Resolver
	logger   logging.Logger
	metrics  *metrics.Collector
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithProfiles lets the engine render named profiles.
func WithProfiles(source ProfileSource) EngineOption {
	return func(e *Engine) {
		e.resolver = NewResolver(source)
	}
}

func WithFonts(fonts *FontRegistry) EngineOption {
	return func(e *Engine) {
		e.fonts = fonts
	}
}

func WithLogger(logger logging.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(collector *metrics.Collector) EngineOption {
	return func(e *Engine) {
		e.metrics = collector
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		fonts:  defaultFonts,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver returns the engine's profile resolver, or nil if none was configured.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// RenderOption 单次渲染选项
type RenderOption func(*renderOptions)

type renderOptions struct {
	code    string
	hasCode bool
	rand    Rand
}

// WithCode renders code verbatim instead of generating one.
func WithCode(code string) RenderOption {
	return func(o *renderOptions) {
		o.code = code
		o.hasCode = true
	}
}

// WithRand draws every random choice of the render from r.
func WithRand(r Rand) RenderOption {
	return func(o *renderOptions) {
		o.rand = r
	}
}

func newRenderOptions(opts []RenderOption) renderOptions {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Render draws a captcha for cfg. A zero Width or Height is derived from the code length.
func (e *Engine) Render(cfg RenderConfig, opts ...RenderOption) (Result, error) {
	return e.render("", cfg, newRenderOptions(opts))
}

// RenderProfile resolves the named profile and renders it. Resolution and
// rendering share the same random source.
func (e *Engine) RenderProfile(name string, opts ...RenderOption) (Result, error) {
	if e.resolver == nil {
		return Result{}, ErrConfigNotFound.WithDetail("profile", name)
	}

	o := newRenderOptions(opts)
	cfg, err := e.resolver.Resolve(name, o.rand)
	if err != nil {
		e.logger.Warn("captcha.resolve", zap.String("profile", name), zap.Error(err))
		return Result{}, err
	}
	return e.render(name, cfg, o)
}

func (e *Engine) render(profile string, cfg RenderConfig, o renderOptions) (res Result, err error) {
	start := time.Now()
	defer func() {
		e.observe(profile, cfg, err, time.Since(start))
	}()

	if cfg.FontSize < 1 {
		return Result{}, ErrInvalidConfig.WithDetail("font_size", cfg.FontSize)
	}
	cfg = cfg.sized()

	code := o.code
	if o.hasCode {
		cfg, err = cfg.withCode(code)
	} else {
		code, err = generateCode(cfg, o.rand)
	}
	if err != nil {
		return Result{}, err
	}

	face, err := e.fonts.Face(cfg.FontPath, cfg.FontSize)
	if err != nil {
		return Result{}, err
	}
	defer face.Close()

	dc := newCanvas(cfg)
	drawNoise(dc, cfg, o.rand)
	drawCurve(dc, cfg, o.rand)
	drawGlyphs(dc, cfg, face, code, o.rand)

	return encode(dc, code)
}

func (e *Engine) observe(profile string, cfg RenderConfig, err error, d time.Duration) {
	if profile == "" {
		profile = "custom"
	}
	if e.metrics != nil {
		e.metrics.RecordRender(profile, err, d)
	}

	fields := []zap.Field{
		zap.String("profile", profile),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Duration("duration", d),
	}
	if err != nil {
		e.logger.Warn("captcha.render", append(fields, zap.Error(err))...)
		return
	}
	e.logger.Debug("captcha.render", fields...)
}
