package captcha

import (
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// newCanvas returns a width x height RGBA canvas filled with the background color.
func newCanvas(cfg RenderConfig) *gg.Context {
	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetColor(cfg.BackgroundColor.color())
	dc.Clear()
	return dc
}

// drawGlyphs writes code left to right. Each glyph advances the cursor by a
// random step and is rotated about its own origin.
func drawGlyphs(dc *gg.Context, cfg RenderConfig, face font.Face, code string, r Rand) {
	fs := float64(cfg.FontSize)
	baseline := float64(int(fs * 1.5))

	dc.SetFontFace(face)
	dc.SetColor(cfg.FontColor.color())

	cursor := 0
	for _, ch := range code {
		cursor += randInt(r, int(fs*1.2), int(fs*1.4))
		angle := randInt(r, -50, 50)
		x := float64(cursor)

		dc.Push()
		// positive angles turn counter-clockwise; gg rotates clockwise on a y-down canvas
		dc.RotateAbout(gg.Radians(float64(-angle)), x, baseline)
		dc.DrawString(string(ch), x, baseline)
		dc.Pop()
	}
}
