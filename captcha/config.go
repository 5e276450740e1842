package captcha

import (
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// DefaultCharset 默认字符集，去掉了容易混淆的 0、O 和小写 o
const DefaultCharset = "123456789AaBbCcDdEeFfGgHhIiJjKkLlMmNnPpQqRrSsTtUuVvWwXxYyZz"

var validate = validator.New()

// Config 验证码服务配置
type Config struct {
	TTL            time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl" default:"5m" validate:"gt=0"`                         // 过期时间
	DefaultProfile string        `mapstructure:"default-profile" json:"defaultProfile" yaml:"default-profile" default:"default"` // 未指定时使用的配置名
	CaseSensitive  bool          `mapstructure:"case-sensitive" json:"caseSensitive" yaml:"case-sensitive"`                      // 答案是否区分大小写
	Store          string        `mapstructure:"store" json:"store" yaml:"store" default:"memory" validate:"oneof=memory redis"`

	// 生成限制
	GenerateLimit  int           `mapstructure:"generate-limit" json:"generateLimit" yaml:"generate-limit" default:"20" validate:"gte=0"` // 时间窗口内的生成次数限制，0 表示不限制
	GenerateWindow time.Duration `mapstructure:"generate-window" json:"generateWindow" yaml:"generate-window" default:"1m"`               // 生成限流时间窗口

	// 验证限制
	MaxAttempts   int           `mapstructure:"max-attempts" json:"maxAttempts" yaml:"max-attempts" default:"5" validate:"gte=0"` // 最大尝试次数，0 表示不限制
	AttemptWindow time.Duration `mapstructure:"attempt-window" json:"attemptWindow" yaml:"attempt-window" default:"10m"`          // 尝试限流时间窗口
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidConfig.WithMessage("invalid captcha service config").WithInnerError(err)
	}
	return nil
}

// Profile 一组命名的渲染选项，未设置的字段取默认值
type Profile struct {
	Charset         string   `mapstructure:"charset" json:"charset" yaml:"charset" default:"123456789AaBbCcDdEeFfGgHhIiJjKkLlMmNnPpQqRrSsTtUuVvWwXxYyZz"`
	Length          int      `mapstructure:"length" json:"length" yaml:"length" default:"4" validate:"min=1"`
	FontSize        int      `mapstructure:"font-size" json:"fontSize" yaml:"font-size" default:"25" validate:"min=1"`
	FontColor       []int    `mapstructure:"font-color" json:"fontColor,omitempty" yaml:"font-color,omitempty" validate:"omitempty,len=3,dive,min=0,max=255"`
	BackgroundColor []int    `mapstructure:"background-color" json:"backgroundColor" yaml:"background-color" default:"[255,255,255]" validate:"len=3,dive,min=0,max=255"`
	Width           int      `mapstructure:"width" json:"width,omitempty" yaml:"width,omitempty" validate:"min=0"`
	Height          int      `mapstructure:"height" json:"height,omitempty" yaml:"height,omitempty" validate:"min=0"`
	UseFont         string   `mapstructure:"use-font" json:"useFont,omitempty" yaml:"use-font,omitempty"`
	Fonts           []string `mapstructure:"fonts" json:"fonts" yaml:"fonts" validate:"dive,required"`
	ConfusionCurve  bool     `mapstructure:"confusion-curve" json:"confusionCurve" yaml:"confusion-curve"`
	RandomNoise     bool     `mapstructure:"random-noise" json:"randomNoise" yaml:"random-noise"`
}

// WithDefaults returns a copy of p with every unset option filled in.
func (p Profile) WithDefaults() (Profile, error) {
	p.FontColor = append([]int(nil), p.FontColor...)
	p.BackgroundColor = append([]int(nil), p.BackgroundColor...)
	p.Fonts = append([]string(nil), p.Fonts...)
	if len(p.FontColor) == 0 {
		p.FontColor = nil
	}
	if len(p.BackgroundColor) == 0 {
		p.BackgroundColor = nil
	}
	if len(p.Fonts) == 0 {
		p.Fonts = BuiltinFonts()
	}

	if err := defaults.Set(&p); err != nil {
		return Profile{}, ErrInvalidConfig.WithInnerError(err)
	}
	return p, nil
}

func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return ErrInvalidConfig.WithInnerError(err)
	}
	return nil
}

func rgbOf(channels []int) RGB {
	return RGB{R: uint8(channels[0]), G: uint8(channels[1]), B: uint8(channels[2])}
}
