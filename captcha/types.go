package captcha

import (
	"image/color"
	"time"
)

const (
	// MimePNG 渲染结果的图片类型
	MimePNG = "png"
	// DataURIPrefix Base64 字段的前缀
	DataURIPrefix = "data:image/png;base64,"
)

// RGB 颜色
type RGB struct {
	R, G, B uint8
}

func (c RGB) color() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// RenderConfig 已解析的渲染配置。解析完成后不再修改，各阶段按值传递。
type RenderConfig struct {
	Charset         string
	Length          int
	FontSize        int
	FontColor       RGB
	BackgroundColor RGB
	FontPath        string
	Width           int
	Height          int
	EnableNoise     bool
	EnableCurve     bool

	// autoWidth 表示宽度由长度推导，显式验证码会按自身长度重新推导；高度与长度无关
	autoWidth bool
}

// AutoWidth reports whether Width was derived from Length and FontSize.
func (c RenderConfig) AutoWidth() bool {
	return c.autoWidth
}

// Result 一次渲染的输出
type Result struct {
	Image  []byte `json:"-"`
	Code   string `json:"code"`
	Mime   string `json:"mime"`
	Base64 string `json:"base64"`
}

// CaptchaData 表示生成的验证码数据
type CaptchaData struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile"`
	Content   string    `json:"content"` // Base64 data URI
	Mime      string    `json:"mime"`
	ExpiresAt time.Time `json:"expiresAt"`

	Image []byte `json:"-"`
}

// VerifyResult 包含验证结果
type VerifyResult struct {
	Valid         bool   `json:"valid"`                   // 是否验证通过
	FailureReason string `json:"failureReason,omitempty"` // 失败原因
	AttemptsLeft  int    `json:"attemptsLeft"`            // 剩余尝试次数，-1 表示不限制
}

// 失败原因
const (
	ReasonNotFound = "not_found"
	ReasonExpired  = "expired"
	ReasonMismatch = "mismatch"
)
