package device

import "time"

// Class is the coarse device form factor.
type Class string

const (
	ClassMobile  Class = "mobile"
	ClassTablet  Class = "tablet"
	ClassDesktop Class = "desktop"
)

// GPUTier is the estimated graphics capability.
type GPUTier string

const (
	GPUUltra   GPUTier = "ultra"
	GPUHigh    GPUTier = "high"
	GPUMedium  GPUTier = "medium"
	GPULow     GPUTier = "low"
	GPUVeryLow GPUTier = "very-low"
)

// MemoryTier buckets installed RAM.
type MemoryTier string

const (
	MemoryLow    MemoryTier = "low"
	MemoryMedium MemoryTier = "medium"
	MemoryHigh   MemoryTier = "high"
	MemoryUltra  MemoryTier = "ultra"
)

// Screen is the resolved screen description.
type Screen struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	PixelRatio  float64 `json:"pixelRatio"`
	AspectRatio float64 `json:"aspectRatio"`
	// PhysicalPixels is (width*ratio) * (height*ratio).
	PhysicalPixels int `json:"physicalPixels"`
}

// Hardware is the resolved hardware description.
type Hardware struct {
	Cores       int        `json:"cores"`
	MemoryGB    float64    `json:"memoryGB"`
	MemoryTier  MemoryTier `json:"memoryTier"`
	GPURenderer string     `json:"gpuRenderer,omitempty"`
	GPUTier     GPUTier    `json:"gpuTier"`
	Touch       bool       `json:"touch"`
}

// Profile is an immutable snapshot of one device, taken once per session.
type Profile struct {
	ID               string   `json:"deviceId"`
	Class            Class    `json:"class"`
	Platform         string   `json:"platform"`
	Screen           Screen   `json:"screen"`
	Hardware         Hardware `json:"hardware"`
	PerformanceScore float64  `json:"performanceScore"`
	RefreshRate      int      `json:"refreshRate"`
	// Fallbacks lists the signals that came from the fallback table.
	Fallbacks []string `json:"fallbacks,omitempty"`
	// CapturedAt is when the session profile was taken.
	CapturedAt time.Time `json:"capturedAt"`
}
