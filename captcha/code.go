package captcha

import (
	"math"
	"unicode/utf8"
)

// randInt returns a uniform int in [lo, hi].
func randInt(r Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.Intn(hi-lo+1)
}

func canvasWidth(length, fontSize int) int {
	fs := float64(fontSize)
	return int(math.Floor(float64(length)*fs*1.5 + fs/2.0))
}

func canvasHeight(fontSize int) int {
	return fontSize * 2
}

// generateCode samples Length distinct positions of the charset.
func generateCode(cfg RenderConfig, r Rand) (string, error) {
	runes := []rune(cfg.Charset)
	if len(runes) == 0 {
		return "", ErrInvalidLength.WithMessage("charset is empty")
	}
	if cfg.Length < 1 || cfg.Length > len(runes) {
		return "", ErrInvalidLength.
			WithDetail("length", cfg.Length).
			WithDetail("charset_size", len(runes))
	}

	perm := r.Perm(len(runes))
	code := make([]rune, cfg.Length)
	for i := range code {
		code[i] = runes[perm[i]]
	}
	return string(code), nil
}

// withCode returns the config an explicit code renders with.
func (c RenderConfig) withCode(code string) (RenderConfig, error) {
	n := utf8.RuneCountInString(code)
	if n == 0 {
		return RenderConfig{}, ErrInvalidLength.WithMessage("code is empty")
	}
	c.Length = n
	if c.autoWidth {
		c.Width = canvasWidth(n, c.FontSize)
	}
	return c, nil
}
