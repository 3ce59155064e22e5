package device

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func midRangePhone() *StaticProvider {
	return &StaticProvider{
		ScreenInfo:   &ScreenMetrics{Width: 393, Height: 852, PixelRatio: 2.75},
		Cores:        ptr(8),
		MemoryGB:     ptr(6.0),
		Renderer:     ptr("Adreno (TM) 642L"),
		PlatformName: ptr("Linux armv8l"),
		Agent:        ptr("Mozilla/5.0 (Linux; Android 13; Pixel 7) Mobile Safari"),
		TouchPoints:  ptr(5),
	}
}

func fixedBenchmark(d time.Duration) Option {
	return WithBenchmark(func() time.Duration { return d })
}

func TestProfileFromFullSignals(t *testing.T) {
	p := NewProfiler(midRangePhone(), fixedBenchmark(2*time.Millisecond+time.Duration(0.3*48*float64(time.Millisecond))))
	prof := p.Profile()

	assert.Equal(t, ClassMobile, prof.Class)
	assert.Equal(t, GPUHigh, prof.Hardware.GPUTier)
	assert.Equal(t, MemoryHigh, prof.Hardware.MemoryTier)
	assert.Equal(t, 8, prof.Hardware.Cores)
	assert.InDelta(t, 0.7, prof.PerformanceScore, 1e-9)
	assert.InDelta(t, 852.0/393.0, prof.Screen.AspectRatio, 1e-9)
	assert.Equal(t, 1081*2343, prof.Screen.PhysicalPixels)
	assert.Equal(t, 60, prof.RefreshRate)
	assert.Empty(t, prof.Fallbacks)
	assert.NotEmpty(t, prof.ID)
}

func TestProfileAllSignalsMissing(t *testing.T) {
	p := NewProfiler(&StaticProvider{}, fixedBenchmark(time.Second))
	prof := p.Profile()

	assert.Equal(t, Defaults.Screen.Width, prof.Screen.Width)
	assert.Equal(t, Defaults.Cores, prof.Hardware.Cores)
	assert.Equal(t, MemoryMedium, prof.Hardware.MemoryTier)
	assert.Equal(t, ClassDesktop, prof.Class)
	assert.Equal(t, 0.0, prof.PerformanceScore)
	assert.Equal(t, GPULow, prof.Hardware.GPUTier)
	assert.Equal(t, Defaults.Platform, prof.Platform)
	assert.ElementsMatch(t, []string{"screen", "platform", "cores", "memory", "gpu"}, prof.Fallbacks)
}

type panickingProvider struct{ StaticProvider }

func (panickingProvider) Screen() (ScreenMetrics, bool) { panic("no display") }
func (panickingProvider) GPURenderer() (string, bool)   { panic("webgl lost") }

func TestProfileSurvivesPanickingProvider(t *testing.T) {
	p := NewProfiler(&panickingProvider{}, WithBenchmark(func() time.Duration { panic("boom") }))
	var prof Profile
	require.NotPanics(t, func() { prof = p.Profile() })
	assert.Equal(t, Defaults.BenchmarkScore, prof.PerformanceScore)
	assert.Contains(t, prof.Fallbacks, "benchmark")
	assert.Contains(t, prof.Fallbacks, "screen")
	assert.Equal(t, Defaults.GPUTier, prof.Hardware.GPUTier)
}

func TestUnknownGPUWithoutBenchmarkUsesDefaultTier(t *testing.T) {
	sp := midRangePhone()
	sp.Renderer = nil
	boom := WithBenchmark(func() time.Duration { panic("boom") })

	prof := NewProfiler(sp, boom).Profile()
	assert.Equal(t, Defaults.GPUTier, prof.Hardware.GPUTier)
	assert.Contains(t, prof.Fallbacks, "gpu")

	// A measured score is still used to estimate the tier.
	prof = NewProfiler(sp, fixedBenchmark(50*time.Millisecond)).Profile()
	assert.Equal(t, EstimateGPU(ClassMobile, 0), prof.Hardware.GPUTier)
	assert.NotContains(t, prof.Fallbacks, "benchmark")
}

func TestProfileCapturedOnce(t *testing.T) {
	var runs atomic.Int32
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewProfiler(midRangePhone(), WithBenchmark(func() time.Duration {
		runs.Add(1)
		return 10 * time.Millisecond
	}), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Profile()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), runs.Load())

	first := p.Profile().CapturedAt
	assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), first)
	assert.Equal(t, first, p.Profile().CapturedAt)

	p.Invalidate()
	second := p.Profile().CapturedAt
	assert.Equal(t, int32(2), runs.Load())
	assert.True(t, second.After(first), "re-capture advances the timestamp")
}

func TestMeasuredBenchmarkOverridesLocalWorkload(t *testing.T) {
	sp := midRangePhone()
	sp.BenchmarkMs = ptr(50.0)
	prof := NewProfiler(sp).Profile()
	assert.Equal(t, 0.0, prof.PerformanceScore)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		agent string
		width int
		touch bool
		want  Class
	}{
		{"Mozilla/5.0 (iPad; CPU OS 17_0)", 820, true, ClassTablet},
		{"", 800, true, ClassTablet},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)", 390, true, ClassMobile},
		{"", 360, true, ClassMobile},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", 1920, false, ClassDesktop},
		{"", 360, false, ClassDesktop},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classify(tc.agent, tc.width, tc.touch), "%q %d %v", tc.agent, tc.width, tc.touch)
	}
}

func TestScoreDuration(t *testing.T) {
	assert.Equal(t, 1.0, ScoreDuration(0))
	assert.Equal(t, 1.0, ScoreDuration(fastBound))
	assert.Equal(t, 0.0, ScoreDuration(slowBound))
	assert.Equal(t, 0.0, ScoreDuration(time.Hour))
	assert.InDelta(t, 0.5, ScoreDuration(26*time.Millisecond), 1e-9)
}

func TestRunBenchmarkTerminates(t *testing.T) {
	d := RunBenchmark()
	assert.Greater(t, d, time.Duration(0))
	s := ScoreDuration(d)
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestClassifyGPU(t *testing.T) {
	cases := map[string]GPUTier{
		"ANGLE (NVIDIA, NVIDIA GeForce RTX 3070 Direct3D11)": GPUUltra,
		"NVIDIA GeForce GTX 1650":                            GPUUltra,
		"NVIDIA GeForce GTX 1060":                            GPUHigh,
		"AMD Radeon RX 6700 XT":                              GPUUltra,
		"AMD Radeon RX 580":                                  GPUHigh,
		"Apple M2":                                           GPUUltra,
		"Adreno (TM) 730":                                    GPUUltra,
		"Adreno (TM) 642L":                                   GPUHigh,
		"Adreno (TM) 512":                                    GPUMedium,
		"Adreno (TM) 405":                                    GPULow,
		"Mali-G78 MP20":                                      GPUHigh,
		"Mali-G52 MC2":                                       GPUMedium,
		"Mali-T830":                                          GPULow,
		"Intel(R) Iris(R) Xe Graphics":                       GPUMedium,
		"PowerVR Rogue GE8320":                               GPUMedium,
		"llvmpipe":                                           GPUVeryLow,
	}
	for renderer, want := range cases {
		assert.Equal(t, want, ClassifyGPU(renderer), renderer)
	}
}

func TestEstimateGPU(t *testing.T) {
	assert.Equal(t, GPUHigh, EstimateGPU(ClassDesktop, 0.9))
	assert.Equal(t, GPUMedium, EstimateGPU(ClassDesktop, 0.5))
	assert.Equal(t, GPULow, EstimateGPU(ClassDesktop, 0.1))
	assert.Equal(t, GPUHigh, EstimateGPU(ClassMobile, 0.9))
	assert.Equal(t, GPUMedium, EstimateGPU(ClassTablet, 0.6))
	assert.Equal(t, GPULow, EstimateGPU(ClassMobile, 0.4))
	assert.Equal(t, GPUVeryLow, EstimateGPU(ClassMobile, 0.1))
}

func TestMemoryTierFor(t *testing.T) {
	assert.Equal(t, MemoryLow, MemoryTierFor(2))
	assert.Equal(t, MemoryMedium, MemoryTierFor(4))
	assert.Equal(t, MemoryHigh, MemoryTierFor(6))
	assert.Equal(t, MemoryUltra, MemoryTierFor(12))
	assert.Equal(t, MemoryMedium, MemoryTierFor(0))
}

func TestDeviceIDStable(t *testing.T) {
	s := ScreenMetrics{Width: 393, Height: 852, PixelRatio: 2.75}
	a := DeviceID(s, "android")
	assert.Equal(t, a, DeviceID(s, "android"))
	assert.NotEqual(t, a, DeviceID(s, "ios"))
	assert.NotEqual(t, a, DeviceID(ScreenMetrics{Width: 412, Height: 915, PixelRatio: 2.625}, "android"))
}

func TestIdentifyMatchesProfile(t *testing.T) {
	for _, prov := range []*StaticProvider{midRangePhone(), {}} {
		prof := NewProfiler(prov, fixedBenchmark(time.Millisecond)).Profile()
		assert.Equal(t, prof.ID, Identify(prov))
	}
	assert.Equal(t, Identify(&StaticProvider{}), Identify(nil))
}

type fakeFrames struct {
	interval time.Duration
	count    int
	stall    bool
}

func (f fakeFrames) Frames(ctx context.Context) (<-chan time.Time, bool) {
	ch := make(chan time.Time)
	go func() {
		defer close(ch)
		if f.stall {
			<-ctx.Done()
			return
		}
		start := time.Unix(1700000000, 0)
		for i := 0; i < f.count; i++ {
			select {
			case ch <- start.Add(time.Duration(i) * f.interval):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, true
}

func TestMeasureRefreshRate(t *testing.T) {
	cases := []struct {
		hz   int
		want int
	}{
		{60, 60}, {90, 90}, {120, 120}, {144, 144}, {30, 30}, {75, 60},
	}
	for _, tc := range cases {
		src := fakeFrames{interval: time.Second / time.Duration(tc.hz), count: tc.hz * 2}
		got, ok := MeasureRefreshRate(context.Background(), src)
		assert.True(t, ok, "%d Hz", tc.hz)
		assert.Equal(t, tc.want, got, "%d Hz", tc.hz)
	}
}

func TestMeasureRefreshRateTimeout(t *testing.T) {
	start := time.Now()
	got, ok := MeasureRefreshRate(context.Background(), fakeFrames{stall: true})
	assert.False(t, ok)
	assert.Equal(t, 60, got)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestMeasureRefreshRateNoSource(t *testing.T) {
	got, ok := MeasureRefreshRate(context.Background(), nil)
	assert.False(t, ok)
	assert.Equal(t, 60, got)
}

func TestStartRefreshMeasurementUpdatesProfile(t *testing.T) {
	p := NewProfiler(midRangePhone(),
		fixedBenchmark(10*time.Millisecond),
		WithFrameSource(fakeFrames{interval: time.Second / 120, count: 240}))

	assert.Equal(t, 60, p.RefreshRate())
	<-p.StartRefreshMeasurement(context.Background())
	assert.Equal(t, 120, p.RefreshRate())
	assert.Equal(t, 120, p.Profile().RefreshRate)

	// A second start is a no-op.
	<-p.StartRefreshMeasurement(context.Background())
}

func TestHostProvider(t *testing.T) {
	prof := NewProfiler(HostProvider{}, fixedBenchmark(10*time.Millisecond)).Profile()
	assert.Greater(t, prof.Hardware.Cores, 0)
	assert.Contains(t, prof.Fallbacks, "screen")
	assert.NotEqual(t, Defaults.Platform, prof.Platform)
}
