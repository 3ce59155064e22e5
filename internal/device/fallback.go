package device

// Defaults is the fallback table used when a signal is unavailable.
var Defaults = struct {
	Screen      ScreenMetrics
	Cores       int
	MemoryGB    float64
	GPUTier     GPUTier
	Platform    string
	RefreshRate int
	// BenchmarkScore is used when the benchmark itself fails.
	BenchmarkScore float64
}{
	Screen:         ScreenMetrics{Width: 393, Height: 852, PixelRatio: 2.75},
	Cores:          4,
	MemoryGB:       4,
	GPUTier:        GPUMedium,
	Platform:       "unknown",
	RefreshRate:    60,
	BenchmarkScore: 0.5,
}

// MemoryTierFor buckets installed RAM in gigabytes.
func MemoryTierFor(gb float64) MemoryTier {
	switch {
	case gb <= 0:
		return MemoryMedium
	case gb < 3:
		return MemoryLow
	case gb < 6:
		return MemoryMedium
	case gb < 8:
		return MemoryHigh
	default:
		return MemoryUltra
	}
}
