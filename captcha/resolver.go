package captcha

import (
	"sort"

	"github.com/leeforge/captcha/config"
	apperrors "github.com/leeforge/captcha/errors"
)

// ProfilesKey 配置文件中验证码配置所在的键
const ProfilesKey = "captcha.profiles"

// Resolver 把命名配置解析为 RenderConfig
type Resolver struct {
	source ProfileSource
}

func NewResolver(source ProfileSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve looks the profile up and resolves it with r. Lookup errors are returned as-is.
func (res *Resolver) Resolve(name string, r Rand) (RenderConfig, error) {
	p, err := res.source.Profile(name)
	if err != nil {
		return RenderConfig{}, err
	}
	cfg, err := p.Resolve(r)
	if err != nil {
		return RenderConfig{}, withProfile(err, name)
	}
	return cfg, nil
}

// Names lists the profiles the source knows about, when it can enumerate them.
func (res *Resolver) Names() []string {
	if l, ok := res.source.(interface{ Names() []string }); ok {
		return l.Names()
	}
	return nil
}

// Resolve merges defaults, validates, then draws the font, the font color and the
// canvas size from r in that order.
func (p Profile) Resolve(r Rand) (RenderConfig, error) {
	p, err := p.WithDefaults()
	if err != nil {
		return RenderConfig{}, err
	}
	if err := p.Validate(); err != nil {
		return RenderConfig{}, err
	}

	cfg := RenderConfig{
		Charset:         p.Charset,
		Length:          p.Length,
		FontSize:        p.FontSize,
		BackgroundColor: rgbOf(p.BackgroundColor),
		FontPath:        p.UseFont,
		Width:           p.Width,
		Height:          p.Height,
		EnableNoise:     p.RandomNoise,
		EnableCurve:     p.ConfusionCurve,
	}

	if cfg.FontPath == "" {
		cfg.FontPath = p.Fonts[r.Intn(len(p.Fonts))]
	}

	if len(p.FontColor) == 3 {
		cfg.FontColor = rgbOf(p.FontColor)
	} else {
		cfg.FontColor = RGB{
			R: uint8(randInt(r, 1, 150)),
			G: uint8(randInt(r, 1, 150)),
			B: uint8(randInt(r, 1, 150)),
		}
	}

	return cfg.sized(), nil
}

// sized fills in a zero width or height from Length and FontSize.
func (c RenderConfig) sized() RenderConfig {
	if c.Width <= 0 {
		c.Width = canvasWidth(c.Length, c.FontSize)
		c.autoWidth = true
	}
	if c.Height <= 0 {
		c.Height = canvasHeight(c.FontSize)
	}
	return c
}

func withProfile(err error, name string) error {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.WithDetail("profile", name)
	}
	return err
}

// StaticProfiles 内存中的配置集合
type StaticProfiles map[string]Profile

func (s StaticProfiles) Profile(name string) (Profile, error) {
	p, ok := s[name]
	if !ok {
		return Profile{}, ErrConfigNotFound.WithDetail("profile", name)
	}
	return p, nil
}

func (s StaticProfiles) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigProfiles 从配置文件的 captcha.profiles.<name> 读取配置。
// 每次查询都读取当前配置，文件热更新后下一次解析即生效。
type ConfigProfiles struct {
	source config.Source
	key    string
}

func NewConfigProfiles(source config.Source) *ConfigProfiles {
	return &ConfigProfiles{source: source, key: ProfilesKey}
}

func (c *ConfigProfiles) Profile(name string) (Profile, error) {
	key := c.key + "." + name
	if !c.source.Has(key) {
		return Profile{}, ErrConfigNotFound.WithDetail("profile", name).WithDetail("key", key)
	}

	var p Profile
	if err := c.source.UnmarshalKey(key, &p); err != nil {
		return Profile{}, ErrInvalidConfig.WithDetail("profile", name).WithInnerError(err)
	}
	return p, nil
}

func (c *ConfigProfiles) Names() []string {
	return c.source.Children(c.key)
}
