package device

import (
	"context"
	"runtime"
	"time"
)

// ScreenMetrics is the logical resolution plus the logical-to-physical pixel ratio.
type ScreenMetrics struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

// CapabilityProvider exposes host signals. Any accessor may report ok=false
// when the host cannot supply the value.
type CapabilityProvider interface {
	Screen() (ScreenMetrics, bool)
	HardwareConcurrency() (int, bool)
	DeviceMemoryGB() (float64, bool)
	GPURenderer() (string, bool)
	Platform() (string, bool)
	UserAgent() (string, bool)
	MaxTouchPoints() (int, bool)
	RefreshRate() (int, bool)
}

// FrameSource delivers one timestamp per presented frame. Hosts without a
// frame callback report ok=false.
type FrameSource interface {
	Frames(ctx context.Context) (<-chan time.Time, bool)
}

// StaticProvider answers from a fixed snapshot. Nil pointers read as unknown.
// It is the shape remote clients submit to the API.
type StaticProvider struct {
	ScreenInfo   *ScreenMetrics `json:"screen,omitempty"`
	Cores        *int           `json:"hardwareConcurrency,omitempty"`
	MemoryGB     *float64       `json:"deviceMemory,omitempty"`
	Renderer     *string        `json:"gpuRenderer,omitempty"`
	PlatformName *string        `json:"platform,omitempty"`
	Agent        *string        `json:"userAgent,omitempty"`
	TouchPoints  *int           `json:"maxTouchPoints,omitempty"`
	RefreshHz    *int           `json:"refreshRate,omitempty"`
	BenchmarkMs  *float64       `json:"benchmarkMs,omitempty"`
}

func (p *StaticProvider) Screen() (ScreenMetrics, bool) {
	if p.ScreenInfo == nil || p.ScreenInfo.Width <= 0 || p.ScreenInfo.Height <= 0 {
		return ScreenMetrics{}, false
	}
	return *p.ScreenInfo, true
}

func (p *StaticProvider) HardwareConcurrency() (int, bool) {
	if p.Cores == nil || *p.Cores <= 0 {
		return 0, false
	}
	return *p.Cores, true
}

func (p *StaticProvider) DeviceMemoryGB() (float64, bool) {
	if p.MemoryGB == nil || *p.MemoryGB <= 0 {
		return 0, false
	}
	return *p.MemoryGB, true
}

func (p *StaticProvider) GPURenderer() (string, bool) {
	if p.Renderer == nil || *p.Renderer == "" {
		return "", false
	}
	return *p.Renderer, true
}

func (p *StaticProvider) Platform() (string, bool) {
	if p.PlatformName == nil || *p.PlatformName == "" {
		return "", false
	}
	return *p.PlatformName, true
}

func (p *StaticProvider) UserAgent() (string, bool) {
	if p.Agent == nil || *p.Agent == "" {
		return "", false
	}
	return *p.Agent, true
}

func (p *StaticProvider) MaxTouchPoints() (int, bool) {
	if p.TouchPoints == nil || *p.TouchPoints < 0 {
		return 0, false
	}
	return *p.TouchPoints, true
}

func (p *StaticProvider) RefreshRate() (int, bool) {
	if p.RefreshHz == nil || *p.RefreshHz <= 0 {
		return 0, false
	}
	return *p.RefreshHz, true
}

// MeasuredBenchmark returns the client-side benchmark duration, if reported.
func (p *StaticProvider) MeasuredBenchmark() (time.Duration, bool) {
	if p.BenchmarkMs == nil || *p.BenchmarkMs < 0 {
		return 0, false
	}
	return time.Duration(*p.BenchmarkMs * float64(time.Millisecond)), true
}

// HostProvider reports what the Go runtime knows about the local machine.
type HostProvider struct{}

func (HostProvider) Screen() (ScreenMetrics, bool)    { return ScreenMetrics{}, false }
func (HostProvider) HardwareConcurrency() (int, bool) { return runtime.NumCPU(), true }
func (HostProvider) DeviceMemoryGB() (float64, bool)  { return 0, false }
func (HostProvider) GPURenderer() (string, bool)      { return "", false }
func (HostProvider) UserAgent() (string, bool)        { return "", false }
func (HostProvider) MaxTouchPoints() (int, bool)      { return 0, true }
func (HostProvider) RefreshRate() (int, bool)         { return 0, false }
func (HostProvider) Platform() (string, bool)         { return runtime.GOOS + "/" + runtime.GOARCH, true }
