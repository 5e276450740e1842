package captcha

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurveSegmentsMeet(t *testing.T) {
	cfg := RenderConfig{Length: 4, FontSize: 25}.sized()

	for seed := int64(0); seed < 100; seed++ {
		p := planCurve(cfg, seeded(seed))

		assert.GreaterOrEqual(t, p.px2, cfg.Width/2)
		assert.LessOrEqual(t, p.px2, int(float64(cfg.Width)*0.8))

		x := float64(p.px2)
		assert.InDelta(t, p.first.at(x), p.second.at(x), 1e-9, "seed %d", seed)
	}
}

func TestCurveParameterRanges(t *testing.T) {
	cfg := RenderConfig{Length: 4, FontSize: 25}.sized()

	for seed := int64(0); seed < 100; seed++ {
		p := planCurve(cfg, seeded(seed))
		for _, s := range []curveSegment{p.first, p.second} {
			assert.GreaterOrEqual(t, s.A, 1.0)
			assert.LessOrEqual(t, s.A, float64(cfg.Height/2))
			assert.GreaterOrEqual(t, s.f, float64(-cfg.Height/4))
			assert.LessOrEqual(t, s.f, float64(cfg.Height/4))

			period := 2 * math.Pi / s.w
			assert.GreaterOrEqual(t, period, float64(cfg.Height)-1e-9)
			assert.LessOrEqual(t, period, float64(cfg.Width*2)+1e-9)
		}
		assert.GreaterOrEqual(t, p.first.b, float64(-cfg.Height/4))
		assert.LessOrEqual(t, p.first.b, float64(cfg.Height/4))
	}
}

func TestCurveSegmentAt(t *testing.T) {
	s := curveSegment{A: 2, b: 1, f: 0, w: math.Pi / 2, h: 10}
	assert.InDelta(t, 6.0, s.at(0), 1e-9)
	assert.InDelta(t, 8.0, s.at(1), 1e-9)
}
