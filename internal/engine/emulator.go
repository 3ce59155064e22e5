package engine

import "math"

const (
	emulatorScale   = 0.65
	referenceDPI    = 160.0
	referenceMouse  = 800.0
	precisionFactor = 0.75
)

// EmulatorFactor is the combined multiplier applied to the base value for emulator play.
func EmulatorFactor(o EmulatorOptions) float64 {
	f := emulatorScale
	if o.DPI > 0 {
		f *= 1 / math.Sqrt(float64(o.DPI)/referenceDPI)
	}
	if o.PointerDPI > 0 {
		f *= referenceMouse / float64(o.PointerDPI)
	}
	if o.XSensitivity > 0 {
		f *= o.XSensitivity
	}
	if o.Precision {
		f *= precisionFactor
	}
	return f
}
