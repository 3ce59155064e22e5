// Package service ties device profiling, generation, validation and storage together.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/engine"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/graphics"
	"github.com/MJE43/redsettings-go/internal/jitter"
	"github.com/MJE43/redsettings-go/internal/store"
	"github.com/MJE43/redsettings-go/internal/validate"
)

var (
	// ErrDeviceRequired is returned when a request names neither a device id nor capabilities.
	ErrDeviceRequired = errors.New("service: device id or capabilities required")
	// ErrUnknownDevice is returned for a device id with no session.
	ErrUnknownDevice = errors.New("service: unknown device")
	// ErrNoStore is returned by saved-profile operations when no database is configured.
	ErrNoStore = errors.New("service: no profile store configured")
)

// DefaultSessionLimit bounds the device sessions held in memory.
const DefaultSessionLimit = 1024

// Service is safe for concurrent use.
type Service struct {
	registry    *games.Registry
	cache       *jitter.Cache
	db          store.DB
	gen         *engine.Generator
	validator   *validate.Validator
	metrics     *Metrics
	log         zerolog.Logger
	rand        engine.Rand
	frameSource func() device.FrameSource
	limit       int

	// mu makes lookup-then-create atomic; the LRU itself is also locked.
	mu       sync.Mutex
	sessions *lru.Cache[string, *device.Profiler]
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics sets the collectors; the default is unregistered.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRand sets the generator's default entropy source.
func WithRand(r engine.Rand) Option {
	return func(s *Service) { s.rand = r }
}

// WithFrameSource starts a refresh-rate measurement for every new device session.
func WithFrameSource(fn func() device.FrameSource) Option {
	return func(s *Service) { s.frameSource = fn }
}

// WithSessionLimit caps the number of device sessions. The least recently
// used session is evicted and re-profiled on its next registration.
func WithSessionLimit(n int) Option {
	return func(s *Service) { s.limit = n }
}

// New builds a service. db may be nil, which disables saved profiles.
func New(reg *games.Registry, cache *jitter.Cache, db store.DB, opts ...Option) *Service {
	s := &Service{
		registry:  reg,
		cache:     cache,
		db:        db,
		validator: validate.New(reg),
		metrics:   NewMetrics(nil),
		log:       zerolog.Nop(),
		rand:      engine.NewEntropy(),
		limit:     DefaultSessionLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	// NewWithEvict only fails for a non-positive size.
	sessions, _ := lru.NewWithEvict(max(s.limit, 1), func(id string, p *device.Profiler) {
		p.Invalidate()
		s.log.Debug().Str("device_id", id).Msg("device session evicted")
	})
	s.sessions = sessions
	s.gen = engine.NewGenerator(reg, cache,
		engine.WithRand(s.rand),
		engine.WithLogger(s.log.With().Str("component", "engine").Logger()))
	return s
}

// Registry exposes the game registry.
func (s *Service) Registry() *games.Registry { return s.registry }

// RegisterDevice profiles caps once per device id and returns the session's profile.
// A device already in session keeps its first profile until ForgetDevice.
func (s *Service) RegisterDevice(ctx context.Context, caps *device.StaticProvider) device.Profile {
	if caps == nil {
		caps = &device.StaticProvider{}
	}
	id := device.Identify(caps)

	s.mu.Lock()
	p, ok := s.sessions.Get(id)
	if !ok {
		opts := []device.Option{device.WithLogger(s.log.With().Str("component", "device").Logger())}
		if s.frameSource != nil {
			opts = append(opts, device.WithFrameSource(s.frameSource()))
		}
		p = device.NewProfiler(caps, opts...)
		s.sessions.Add(id, p)
		s.metrics.sessions.Set(float64(s.sessions.Len()))
	}
	s.mu.Unlock()

	if !ok && s.frameSource != nil {
		p.StartRefreshMeasurement(context.WithoutCancel(ctx))
	}
	prof := p.Profile()
	s.log.Debug().Str("device_id", prof.ID).Bool("new", !ok).Strs("fallbacks", prof.Fallbacks).Msg("device registered")
	return prof
}

// Device returns the session profile for id.
func (s *Service) Device(id string) (device.Profile, error) {
	p, ok := s.sessions.Get(id)
	if !ok {
		return device.Profile{}, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	return p.Profile(), nil
}

// ForgetDevice drops the session so the next registration re-profiles.
func (s *Service) ForgetDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	s.metrics.sessions.Set(float64(s.sessions.Len()))
	return nil
}

// GenerateRequest names a device, a game and the generation knobs.
type GenerateRequest struct {
	DeviceID string                 `json:"deviceId,omitempty"`
	Device   *device.StaticProvider `json:"device,omitempty"`
	Game     string                 `json:"game"`
	Style    string                 `json:"style,omitempty"`
	Options  engine.Options         `json:"options"`
	// Seed switches this request to the reproducible stream.
	Seed     string            `json:"seed,omitempty"`
	Graphics *graphics.Options `json:"graphics,omitempty"`
}

// GenerateResult is a generated profile with its validation report.
type GenerateResult struct {
	Profile  *engine.Profile    `json:"profile"`
	Report   validate.Report    `json:"validation"`
	Graphics *graphics.Settings `json:"graphics,omitempty"`
}

func (s *Service) resolveDevice(ctx context.Context, id string, caps *device.StaticProvider) (device.Profile, error) {
	switch {
	case id != "":
		return s.Device(id)
	case caps != nil:
		return s.RegisterDevice(ctx, caps), nil
	default:
		return device.Profile{}, ErrDeviceRequired
	}
}

// Generate produces and validates a settings profile.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	dev, err := s.resolveDevice(ctx, req.DeviceID, req.Device)
	if err != nil {
		return nil, err
	}

	gen := s.gen
	if req.Seed != "" {
		gen = gen.Fork(engine.NewReproducible(req.Seed))
	}
	p, err := gen.Generate(ctx, dev, req.Game, req.Style, req.Options)
	if err != nil {
		s.countNotFound(err)
		return nil, err
	}
	report, err := s.validator.Validate(p.Game, p.Values)
	if err != nil {
		return nil, err
	}
	s.metrics.generations.WithLabelValues(p.Game, p.Style).Inc()
	s.metrics.scores.WithLabelValues(p.Game).Observe(float64(report.Score))

	out := &GenerateResult{Profile: p, Report: report}
	if req.Graphics != nil {
		g, err := graphics.Advise(dev, p.Game, *req.Graphics)
		if err != nil {
			return nil, err
		}
		out.Graphics = &g
	}
	s.log.Info().
		Str("game", p.Game).
		Str("style", p.Style).
		Str("device_id", dev.ID).
		Int("score", report.Score).
		Bool("valid", report.IsValid).
		Msg("profile generated")
	return out, nil
}

// Validate scores arbitrary values against a game schema.
func (s *Service) Validate(gameID string, values map[string]int) (validate.Report, error) {
	r, err := s.validator.Validate(gameID, values)
	if err != nil {
		s.countNotFound(err)
		return r, err
	}
	s.metrics.scores.WithLabelValues(gameID).Observe(float64(r.Score))
	return r, nil
}

// GraphicsRequest asks for graphics settings.
type GraphicsRequest struct {
	DeviceID string                 `json:"deviceId,omitempty"`
	Device   *device.StaticProvider `json:"device,omitempty"`
	Game     string                 `json:"game"`
	Options  graphics.Options       `json:"options"`
}

// Graphics recommends graphics settings for a device.
func (s *Service) Graphics(ctx context.Context, req GraphicsRequest) (graphics.Settings, error) {
	dev, err := s.resolveDevice(ctx, req.DeviceID, req.Device)
	if err != nil {
		return graphics.Settings{}, err
	}
	g, err := graphics.Advise(dev, req.Game, req.Options)
	if err != nil {
		s.countNotFound(err)
	}
	return g, err
}

// ResetCache discards a device's jitter so the next generation draws fresh factors.
func (s *Service) ResetCache(ctx context.Context, deviceID string) {
	s.cache.Reset(ctx, deviceID)
	s.log.Info().Str("device_id", deviceID).Msg("jitter cache reset")
}

func (s *Service) countNotFound(err error) {
	var nf *games.NotFoundError
	if errors.As(err, &nf) {
		s.metrics.notFound.WithLabelValues(nf.Kind).Inc()
	}
}
