package captcha

import (
	"math"

	"github.com/fogleman/gg"
)

// curveSegment is y = A*sin(w*x + f) + b + h/2.
type curveSegment struct {
	A, b, f, w float64
	h          float64
}

func (s curveSegment) at(x float64) float64 {
	return s.A*math.Sin(s.w*x+s.f) + s.b + s.h/2
}

// curvePlan holds two sine segments joined at px2.
type curvePlan struct {
	first, second curveSegment
	px2           int
}

func randomSegment(r Rand, width, height int, withOffset bool) curveSegment {
	s := curveSegment{h: float64(height)}
	s.A = float64(randInt(r, 1, height/2))
	if withOffset {
		s.b = float64(randInt(r, -height/4, height/4))
	}
	s.f = float64(randInt(r, -height/4, height/4))
	if T := randInt(r, height, width*2); T != 0 {
		s.w = 2 * math.Pi / float64(T)
	}
	return s
}

func planCurve(cfg RenderConfig, r Rand) curvePlan {
	var p curvePlan
	p.first = randomSegment(r, cfg.Width, cfg.Height, true)
	p.px2 = randInt(r, cfg.Width/2, int(float64(cfg.Width)*0.8))

	p.second = randomSegment(r, cfg.Width, cfg.Height, false)
	x := float64(p.px2)
	p.second.b = p.first.at(x) - p.second.A*math.Sin(p.second.w*x+p.second.f) - p.second.h/2
	return p
}

// drawCurve draws a thick sine line across the canvas in the font color.
func drawCurve(dc *gg.Context, cfg RenderConfig, r Rand) {
	if !cfg.EnableCurve {
		return
	}

	p := planCurve(cfg, r)
	dc.SetColor(cfg.FontColor.color())
	plotSegment(dc, p.first, 0, p.px2, cfg.FontSize)
	plotSegment(dc, p.second, p.px2, cfg.Width, cfg.FontSize)
}

func plotSegment(dc *gg.Context, s curveSegment, from, to, fontSize int) {
	if s.w == 0 {
		return
	}
	for x := from; x <= to; x++ {
		y := int(s.at(float64(x)))
		for i := fontSize / 5; i > 0; i-- {
			dc.SetPixel(x+i, y+i)
		}
	}
}
