// Package engine turns a device profile and a game schema into concrete settings.
package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/jitter"
)

const (
	// maxJitter is the half-width of the jitter band at stability 1.
	maxJitter = jitter.MaxDeviation
	// gyroScale converts the base value into gyroscope units.
	gyroScale = 0.5
)

// JitterCache stores per-device jitter factors.
type JitterCache interface {
	GetOrCreate(ctx context.Context, deviceID, field string, gen func() float64) float64
}

// Generator produces settings profiles. It is safe for concurrent use.
type Generator struct {
	registry *games.Registry
	cache    JitterCache
	rand     Rand
	log      zerolog.Logger
	now      func() time.Time
	exprs    *exprEvaluator
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand replaces the entropy source.
func WithRand(r Rand) GeneratorOption {
	return func(g *Generator) { g.rand = r }
}

// WithLogger sets the generator's logger.
func WithLogger(l zerolog.Logger) GeneratorOption {
	return func(g *Generator) { g.log = l }
}

// WithClock overrides time.Now for GeneratedAt.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator wires a generator over a registry and jitter cache.
func NewGenerator(reg *games.Registry, cache JitterCache, opts ...GeneratorOption) *Generator {
	g := &Generator{
		registry: reg,
		cache:    cache,
		rand:     NewEntropy(),
		log:      zerolog.Nop(),
		now:      time.Now,
		exprs:    newExprEvaluator(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fork returns a generator sharing g's registry, cache and compiled
// expressions but drawing from r.
func (g *Generator) Fork(r Rand) *Generator {
	c := *g
	c.rand = r
	return &c
}

// Generate builds a complete settings profile. An empty style selects the
// game's default. Unknown games and styles return a *games.NotFoundError.
func (g *Generator) Generate(ctx context.Context, p device.Profile, gameID, style string, opts Options) (*Profile, error) {
	schema, err := g.registry.Schema(gameID)
	if err != nil {
		return nil, err
	}
	if style == "" {
		style = schema.DefaultStyle
	}
	st, err := schema.Style(style)
	if err != nil {
		return nil, err
	}
	gyro, rotation, fireSize, err := resolveOptions(schema, opts)
	if err != nil {
		return nil, err
	}

	base := BaseValue(schema, st, p)
	if opts.Emulator != nil {
		base = schema.BaseRange.Clamp(round(float64(base) * EmulatorFactor(*opts.Emulator)))
	}

	values := make(map[string]int, len(schema.Fields))
	jitter := make(map[string]float64)

	for _, f := range schema.FieldsOf(games.KindPrimary) {
		factor := g.jitterFactor(ctx, p.ID, schema.ID, f)
		jitter[f.Name] = factor
		values[f.Name] = f.Range.Clamp(round(float64(base) * st.Multipliers[f.Name] * factor))
	}

	if err := g.derive(schema, values); err != nil {
		return nil, err
	}

	if fc := schema.FireControl; fc != nil {
		band, err := FireBand(schema, fireSize, p)
		if err != nil {
			return nil, err
		}
		values[fc.Field] = drawInRange(g.rand, band)
	}

	if schema.Features.Vehicle && opts.Vehicle != nil {
		f, _ := schema.Field(schema.VehicleField)
		values[f.Name] = f.Range.Clamp(*opts.Vehicle)
	}

	for _, gf := range schema.Gyro {
		values[gf.Field] = gyroValue(schema, st, gf, base, gyro)
	}

	out := &Profile{
		Game:          schema.ID,
		GameName:      schema.Name,
		Style:         st.Name,
		Base:          base,
		Values:        values,
		Jitter:        jitter,
		FireSize:      fireSize,
		RotationMode:  rotation,
		Emulator:      opts.Emulator != nil,
		Device:        p,
		RefreshRate:   p.RefreshRate,
		GeneratedAt:   g.now().UTC(),
		EngineVersion: Version,
		Description:   st.Description,
		Tips:          schema.TipsFor(st, gyro != GyroOff),
	}
	if schema.Features.Gyro {
		out.GyroMode = gyro
	}
	g.log.Debug().
		Str("game", schema.ID).
		Str("style", st.Name).
		Str("device_id", p.ID).
		Int("base", base).
		Msg("settings generated")
	return out, nil
}

// jitterFactor returns the device's stable factor for a field, creating it on first use.
// Keys are namespaced by game so fields with shared names do not collide.
func (g *Generator) jitterFactor(ctx context.Context, deviceID, gameID string, f games.Field) float64 {
	synth := func() float64 {
		return 1 + (2*g.rand.Float64()-1)*maxJitter*f.Stability
	}
	if g.cache == nil {
		return synth()
	}
	return g.cache.GetOrCreate(ctx, deviceID, gameID+"."+f.Name, synth)
}

func gyroValue(s *games.Schema, st *games.Style, gf games.GyroField, base int, mode GyroMode) int {
	if mode == GyroOff {
		return 0
	}
	intensity := 1.0
	if mode == GyroEnhanced {
		intensity = enhancedGyroIntensity
	}
	f, _ := s.Field(gf.Field)
	return f.Range.Clamp(round(float64(base) * st.Gyro * gyroScale * gf.Decay * intensity))
}

func resolveOptions(s *games.Schema, o Options) (gyro GyroMode, rotation, fireSize string, err error) {
	gyro = o.Gyro
	switch gyro {
	case "":
		gyro = GyroOn
	case GyroOn, GyroOff, GyroEnhanced:
	default:
		return "", "", "", fmt.Errorf("engine: gyro mode %q: %w", o.Gyro, ErrInvalidOption)
	}

	if s.Features.RotationMode {
		rotation = o.RotationMode
		if rotation == "" {
			rotation = s.DefaultRotationMode()
		} else if !slices.Contains(s.RotationModes, rotation) {
			return "", "", "", fmt.Errorf("engine: rotation mode %q: %w", rotation, ErrInvalidOption)
		}
	}

	if s.FireControl != nil {
		fireSize = o.FireSize
		if fireSize == "" {
			fireSize = DefaultFireSize
		}
		if _, ok := s.FireControl.Bands[fireSize]; !ok {
			return "", "", "", fmt.Errorf("engine: fire button size %q: %w", fireSize, ErrInvalidOption)
		}
	}
	return gyro, rotation, fireSize, nil
}
