package device

import (
	"context"
	"math"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	tabletAgent = regexp.MustCompile(`(?i)ipad|tablet`)
	mobileAgent = regexp.MustCompile(`(?i)mobile|android|iphone|ipod`)
)

// Option configures a Profiler.
type Option func(*Profiler)

// WithBenchmark replaces the local CPU workload, e.g. with a client-measured duration.
func WithBenchmark(fn func() time.Duration) Option {
	return func(p *Profiler) { p.benchmark = fn }
}

// WithFrameSource enables the asynchronous refresh-rate measurement.
func WithFrameSource(src FrameSource) Option {
	return func(p *Profiler) { p.frames = src }
}

// WithLogger sets the profiler's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Profiler) { p.log = l }
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Profiler) { p.now = now }
}

// Profiler captures a device Profile once and serves it for the rest of the session.
type Profiler struct {
	provider  CapabilityProvider
	benchmark func() time.Duration
	frames    FrameSource
	log       zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	once    *sync.Once
	profile Profile

	refresh atomic.Int32
	probing atomic.Bool
}

// NewProfiler wraps a capability provider.
func NewProfiler(provider CapabilityProvider, opts ...Option) *Profiler {
	if provider == nil {
		provider = &StaticProvider{}
	}
	p := &Profiler{
		provider:  provider,
		benchmark: RunBenchmark,
		log:       zerolog.Nop(),
		now:       time.Now,
		once:      new(sync.Once),
	}
	for _, opt := range opts {
		opt(p)
	}
	if sp, ok := provider.(*StaticProvider); ok {
		if d, measured := sp.MeasuredBenchmark(); measured {
			p.benchmark = func() time.Duration { return d }
		}
	}
	return p
}

// Profile returns the session profile, capturing it on first use.
func (p *Profiler) Profile() Profile {
	p.mu.Lock()
	once := p.once
	p.mu.Unlock()
	once.Do(func() {
		prof := p.capture()
		p.mu.Lock()
		p.profile = prof
		p.mu.Unlock()
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	prof := p.profile
	if hz := p.refresh.Load(); hz > 0 {
		prof.RefreshRate = int(hz)
	}
	return prof
}

// Invalidate discards the captured profile; the next Profile call re-captures.
func (p *Profiler) Invalidate() {
	p.mu.Lock()
	p.once = new(sync.Once)
	p.mu.Unlock()
}

// RefreshRate is the measured refresh rate, or the session default until the measurement resolves.
func (p *Profiler) RefreshRate() int {
	if hz := p.refresh.Load(); hz > 0 {
		return int(hz)
	}
	return p.Profile().RefreshRate
}

// StartRefreshMeasurement measures the refresh rate in the background. Calls after
// the first are ignored. The returned channel closes when the measurement ends.
func (p *Profiler) StartRefreshMeasurement(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if p.frames == nil || !p.probing.CompareAndSwap(false, true) {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		rate, ok := MeasureRefreshRate(ctx, p.frames)
		p.refresh.Store(int32(rate))
		p.log.Debug().Int("hz", rate).Bool("measured", ok).Msg("refresh measurement finished")
	}()
	return done
}

func (p *Profiler) capture() Profile {
	var fallbacks []string
	note := func(signal string) { fallbacks = append(fallbacks, signal) }

	screen, platform, missing := identity(p.provider)
	fallbacks = append(fallbacks, missing...)
	cores, ok := safe(p.provider.HardwareConcurrency)
	if !ok {
		cores = Defaults.Cores
		note("cores")
	}
	memGB, ok := safe(p.provider.DeviceMemoryGB)
	if !ok {
		memGB = Defaults.MemoryGB
		note("memory")
	}
	touchPoints, _ := safe(p.provider.MaxTouchPoints)
	agent, _ := safe(p.provider.UserAgent)

	class := classify(agent, screen.Width, touchPoints > 0)
	score, measured := p.score()
	if !measured {
		note("benchmark")
	}

	renderer, ok := safe(p.provider.GPURenderer)
	var gpu GPUTier
	switch {
	case ok:
		gpu = ClassifyGPU(renderer)
	case measured:
		gpu = EstimateGPU(class, score)
		note("gpu")
	default:
		// A fallback score says nothing about the GPU.
		gpu = Defaults.GPUTier
		note("gpu")
	}

	refresh, ok := safe(p.provider.RefreshRate)
	if !ok {
		refresh = Defaults.RefreshRate
	} else {
		refresh = RoundRefreshRate(float64(refresh))
	}

	prof := Profile{
		ID:       DeviceID(screen, platform),
		Class:    class,
		Platform: platform,
		Screen:   describeScreen(screen),
		Hardware: Hardware{
			Cores:       cores,
			MemoryGB:    memGB,
			MemoryTier:  MemoryTierFor(memGB),
			GPURenderer: renderer,
			GPUTier:     gpu,
			Touch:       touchPoints > 0,
		},
		PerformanceScore: score,
		RefreshRate:      refresh,
		Fallbacks:        fallbacks,
		CapturedAt:       p.now().UTC(),
	}
	p.log.Debug().
		Str("device_id", prof.ID).
		Str("class", string(prof.Class)).
		Float64("score", prof.PerformanceScore).
		Strs("fallbacks", fallbacks).
		Msg("device profiled")
	return prof
}

// score runs the benchmark. measured is false when it panicked and the
// fallback score was used.
func (p *Profiler) score() (score float64, measured bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn().Interface("panic", r).Msg("benchmark failed")
			score, measured = Defaults.BenchmarkScore, false
		}
	}()
	return ScoreDuration(p.benchmark()), true
}

func classify(agent string, width int, touch bool) Class {
	switch {
	case tabletAgent.MatchString(agent) || (width >= 768 && width < 1024 && touch):
		return ClassTablet
	case mobileAgent.MatchString(agent) || (width < 768 && touch):
		return ClassMobile
	default:
		return ClassDesktop
	}
}

func describeScreen(s ScreenMetrics) Screen {
	long, short := s.Width, s.Height
	if short > long {
		long, short = short, long
	}
	aspect := 0.0
	if short > 0 {
		aspect = float64(long) / float64(short)
	}
	physW := math.Round(float64(s.Width) * s.PixelRatio)
	physH := math.Round(float64(s.Height) * s.PixelRatio)
	return Screen{
		Width:          s.Width,
		Height:         s.Height,
		PixelRatio:     s.PixelRatio,
		AspectRatio:    aspect,
		PhysicalPixels: int(physW * physH),
	}
}

// safe calls a provider accessor, treating a panic as an unavailable value.
func safe[T any](fn func() (T, bool)) (v T, ok bool) {
	defer func() {
		if recover() != nil {
			var zero T
			v, ok = zero, false
		}
	}()
	return fn()
}
