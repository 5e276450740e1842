package captcha

import (
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	noiseCharset  = "2345678abcdefhijkmnpqrstuvwxyz"
	noiseBursts   = 10
	noisePerBurst = 5
)

// drawNoise scatters small pale characters over the canvas.
func drawNoise(dc *gg.Context, cfg RenderConfig, r Rand) {
	if !cfg.EnableNoise {
		return
	}

	face := basicfont.Face7x13
	ascent := float64(face.Metrics().Ascent.Ceil())
	dc.SetFontFace(face)

	for i := 0; i < noiseBursts; i++ {
		dc.SetColor(color.NRGBA{
			R: uint8(randInt(r, 150, 225)),
			G: uint8(randInt(r, 150, 225)),
			B: uint8(randInt(r, 150, 225)),
			A: 0xff,
		})
		for j := 0; j < noisePerBurst; j++ {
			x := randInt(r, -10, cfg.Width)
			y := randInt(r, -10, cfg.Height)
			ch := noiseCharset[r.Intn(len(noiseCharset))]
			// (x, y) is the top-left corner of the glyph cell
			dc.DrawString(string(ch), float64(x), float64(y)+ascent)
		}
	}
}
