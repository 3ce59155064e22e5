package engine

import (
	"math"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/games"
)

// resolutionFactors scales by physical pixel count: denser screens get lower sensitivity.
var resolutionFactors = []struct {
	below  int
	factor float64
}{
	{1_382_400, 1.12}, // below 720p-class
	{2_073_600, 1.05}, // below 1080p
	{3_686_400, 1.00}, // below 1440p
	{8_294_400, 0.95}, // below 4K
}

const denseScreenFactor = 0.88

var classFactors = map[device.Class]float64{
	device.ClassMobile:  1.08,
	device.ClassTablet:  1.03,
	device.ClassDesktop: 0.97,
}

// ResolutionFactor maps physical pixels onto the resolution table.
func ResolutionFactor(physicalPixels int) float64 {
	for _, r := range resolutionFactors {
		if physicalPixels < r.below {
			return r.factor
		}
	}
	return denseScreenFactor
}

// AspectFactor rewards aspect ratios close to the game's reference ratio.
func AspectFactor(aspect, reference float64) float64 {
	if reference <= 0 || aspect <= 0 {
		return 1
	}
	switch d := math.Abs(aspect - reference); {
	case d <= 0.05:
		return 1.06
	case d <= 0.15:
		return 1.04
	case d <= 0.30:
		return 1.02
	default:
		return 0.98
	}
}

// ScreenFactor combines resolution and aspect adjustments.
func ScreenFactor(s device.Screen, reference float64) float64 {
	return ResolutionFactor(s.PhysicalPixels) * AspectFactor(s.AspectRatio, reference)
}

// PerformanceFactor grows linearly from 0.9 at score 0 to 1.1 at score 1.
func PerformanceFactor(score float64) float64 {
	return 0.9 + 0.2*clampFloat(score, 0, 1)
}

// ClassFactor is the per-form-factor multiplier.
func ClassFactor(c device.Class) float64 {
	if f, ok := classFactors[c]; ok {
		return f
	}
	return 1
}

// BaseValue computes the rounded, clamped base sensitivity for a style on a device.
func BaseValue(s *games.Schema, st *games.Style, p device.Profile) int {
	v := st.Base *
		ScreenFactor(p.Screen, s.ReferenceAspect) *
		PerformanceFactor(p.PerformanceScore) *
		ClassFactor(p.Class)
	return s.BaseRange.Clamp(round(v))
}

func round(v float64) int {
	return int(math.Round(v))
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
