package captcha

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = RGB{255, 255, 255}
	ink   = RGB{10, 20, 30}
)

func plainConfig() RenderConfig {
	return RenderConfig{
		Charset:         DefaultCharset,
		Length:          4,
		FontSize:        25,
		FontColor:       ink,
		BackgroundColor: white,
		FontPath:        "builtin:goregular",
	}
}

func decode(t *testing.T, res Result) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(res.Image))
	require.NoError(t, err)
	return img
}

func rgbAt(img image.Image, x, y int) RGB {
	r, g, b, _ := img.At(x, y).RGBA()
	return RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

func TestRenderDefaultProfile(t *testing.T) {
	e := NewEngine(WithProfiles(StaticProfiles{"default": {}}))

	res, err := e.RenderProfile("default", WithRand(seeded(1)))
	require.NoError(t, err)

	assert.Equal(t, MimePNG, res.Mime)
	assert.Len(t, res.Code, 4)

	bounds := decode(t, res).Bounds()
	assert.Equal(t, 162, bounds.Dx())
	assert.Equal(t, 50, bounds.Dy())

	require.True(t, strings.HasPrefix(res.Base64, DataURIPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(res.Base64, DataURIPrefix))
	require.NoError(t, err)
	assert.Equal(t, res.Image, raw)
}

func TestRenderProfileWithoutSource(t *testing.T) {
	_, err := NewEngine().RenderProfile("default")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRenderExplicitCode(t *testing.T) {
	e := NewEngine(WithProfiles(StaticProfiles{
		"default": {},
		"wide":    {Width: 300},
		"tall":    {Height: 100},
	}))

	res, err := e.RenderProfile("default", WithCode("ab12"), WithRand(seeded(2)))
	require.NoError(t, err)
	assert.Equal(t, "ab12", res.Code)
	assert.Equal(t, 162, decode(t, res).Bounds().Dx())

	res, err = e.RenderProfile("default", WithCode("abcdef"), WithRand(seeded(2)))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", res.Code)
	assert.Equal(t, 237, decode(t, res).Bounds().Dx())

	res, err = e.RenderProfile("wide", WithCode("abcdef"), WithRand(seeded(2)))
	require.NoError(t, err)
	assert.Equal(t, 300, decode(t, res).Bounds().Dx())

	res, err = e.RenderProfile("tall", WithCode("abcdef"), WithRand(seeded(2)))
	require.NoError(t, err)
	assert.Equal(t, 237, decode(t, res).Bounds().Dx())
	assert.Equal(t, 100, decode(t, res).Bounds().Dy())

	_, err = e.RenderProfile("default", WithCode(""))
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestRenderIsDeterministicForSeed(t *testing.T) {
	cfg := plainConfig()
	cfg.EnableNoise = true
	cfg.EnableCurve = true
	e := NewEngine()

	a, err := e.Render(cfg, WithRand(seeded(7)))
	require.NoError(t, err)
	b, err := e.Render(cfg, WithRand(seeded(7)))
	require.NoError(t, err)
	c, err := e.Render(cfg, WithRand(seeded(8)))
	require.NoError(t, err)

	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Image, b.Image)
	assert.NotEqual(t, a.Image, c.Image)
}

func TestRenderBlankCodeIsBackground(t *testing.T) {
	res, err := NewEngine().Render(plainConfig(), WithCode("    "), WithRand(seeded(1)))
	require.NoError(t, err)

	img := decode(t, res)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			require.Equal(t, white, rgbAt(img, x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestRenderLeftMarginStaysClear(t *testing.T) {
	e := NewEngine()
	for seed := int64(0); seed < 10; seed++ {
		res, err := e.Render(plainConfig(), WithRand(seeded(seed)))
		require.NoError(t, err)

		img := decode(t, res)
		inked := false
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := rgbAt(img, x, y)
				if x < 10 {
					require.Equal(t, white, c, "seed %d pixel (%d,%d)", seed, x, y)
				}
				if c != white {
					inked = true
				}
			}
		}
		assert.True(t, inked, "seed %d drew nothing", seed)
	}
}

func TestRenderCurveUsesFontColor(t *testing.T) {
	cfg := plainConfig()
	cfg.EnableCurve = true
	e := NewEngine()

	inked := 0
	for seed := int64(0); seed < 5; seed++ {
		res, err := e.Render(cfg, WithCode("    "), WithRand(seeded(seed)))
		require.NoError(t, err)

		img := decode(t, res)
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := rgbAt(img, x, y)
				if c == white {
					continue
				}
				require.Equal(t, ink, c, "seed %d pixel (%d,%d)", seed, x, y)
				inked++
			}
		}
	}
	assert.Positive(t, inked)
}

func TestRenderNoiseIsPale(t *testing.T) {
	cfg := plainConfig()
	cfg.EnableNoise = true

	res, err := NewEngine().Render(cfg, WithCode("    "), WithRand(seeded(4)))
	require.NoError(t, err)

	img := decode(t, res)
	b := img.Bounds()
	noisy := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := rgbAt(img, x, y)
			if c == white {
				continue
			}
			noisy = true
			require.GreaterOrEqual(t, c.R, uint8(150))
			require.GreaterOrEqual(t, c.G, uint8(150))
			require.GreaterOrEqual(t, c.B, uint8(150))
		}
	}
	assert.True(t, noisy)
}

func TestRenderRejectsBadConfig(t *testing.T) {
	cfg := plainConfig()
	cfg.FontSize = 0
	_, err := NewEngine().Render(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = plainConfig()
	cfg.FontPath = "/nonexistent/font.ttf"
	_, err = NewEngine().Render(cfg)
	assert.ErrorIs(t, err, ErrFontLoad)

	cfg = plainConfig()
	cfg.Charset = "ab"
	_, err = NewEngine().Render(cfg)
	assert.ErrorIs(t, err, ErrInvalidLength)
}
