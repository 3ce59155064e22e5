package games

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/dop251/goja"
)

//go:embed data/games.json
var builtinData []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded game table.
// The embedded table is validated by tests; a broken table panics at first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(builtinData))
		if err != nil {
			panic(fmt.Sprintf("games: embedded table: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Summary is the listing view of a schema.
type Summary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Styles       []string       `json:"styles"`
	StyleDetails []StyleSummary `json:"styleDetails"`
	Default      string         `json:"defaultStyle"`
	Features     Features       `json:"features"`
}

// StyleSummary is the descriptive part of a Style.
type StyleSummary struct {
	Name           string   `json:"name"`
	Label          string   `json:"label"`
	Description    string   `json:"description,omitempty"`
	RecommendedFor []string `json:"recommendedFor,omitempty"`
}

// Registry maps game ids to validated schemas. It is immutable once built.
type Registry struct {
	schemas map[string]*Schema
	ids     []string
}

type document struct {
	Games []*Schema `json:"games"`
}

// Load decodes a `{"games": [...]}` document and builds a registry from it.
func Load(r io.Reader) (*Registry, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("games: decode table: %w", err)
	}
	return NewRegistry(doc.Games...)
}

// NewRegistry validates and indexes the given schemas.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	reg := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if err := s.prepare(); err != nil {
			return nil, err
		}
		if _, dup := reg.schemas[s.ID]; dup {
			return nil, fmt.Errorf("games: duplicate game %q", s.ID)
		}
		reg.schemas[s.ID] = s
		reg.ids = append(reg.ids, s.ID)
	}
	sort.Strings(reg.ids)
	return reg, nil
}

// Schema returns the schema for a game id.
func (r *Registry) Schema(id string) (*Schema, error) {
	s, ok := r.schemas[id]
	if !ok {
		return nil, &NotFoundError{Kind: "game", Name: id}
	}
	return s, nil
}

// IDs returns all registered game ids, sorted.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// List summarizes every registered game.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.ids))
	for _, id := range r.ids {
		s := r.schemas[id]
		details := make([]StyleSummary, len(s.Styles))
		for i, st := range s.Styles {
			details[i] = StyleSummary{Name: st.Name, Label: st.Label, Description: st.Description, RecommendedFor: st.RecommendedFor}
		}
		out = append(out, Summary{
			ID:           s.ID,
			Name:         s.Name,
			Styles:       s.StyleNames(),
			StyleDetails: details,
			Default:      s.DefaultStyle,
			Features:     s.Features,
		})
	}
	return out
}

func (s *Schema) prepare() error {
	if s.ID == "" {
		return fmt.Errorf("games: schema without id")
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("games: %s: %s", s.ID, fmt.Sprintf(format, args...))
	}
	if s.BaseRange.Min > s.BaseRange.Max {
		return fail("base range %d > %d", s.BaseRange.Min, s.BaseRange.Max)
	}

	s.fieldIndex = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if _, dup := s.fieldIndex[f.Name]; dup {
			return fail("duplicate field %q", f.Name)
		}
		if f.Range.Min > f.Range.Max {
			return fail("field %q: range %d > %d", f.Name, f.Range.Min, f.Range.Max)
		}
		switch f.Kind {
		case KindPrimary, KindDerived, KindGyro, KindFire:
		default:
			return fail("field %q: unknown kind %q", f.Name, f.Kind)
		}
		if f.Kind == KindPrimary && (f.Stability < 0 || f.Stability > 1) {
			return fail("field %q: stability %v outside [0,1]", f.Name, f.Stability)
		}
		s.fieldIndex[f.Name] = i
	}

	has := func(name string, kinds ...FieldKind) bool {
		f, ok := s.Field(name)
		if !ok {
			return false
		}
		for _, k := range kinds {
			if f.Kind == k {
				return true
			}
		}
		return len(kinds) == 0
	}

	if len(s.Styles) == 0 {
		return fail("no styles")
	}
	s.styleIndex = make(map[string]int, len(s.Styles))
	for i, st := range s.Styles {
		if _, dup := s.styleIndex[st.Name]; dup {
			return fail("duplicate style %q", st.Name)
		}
		for _, f := range s.FieldsOf(KindPrimary) {
			if _, ok := st.Multipliers[f.Name]; !ok {
				return fail("style %q: missing multiplier for %q", st.Name, f.Name)
			}
		}
		for name := range st.Multipliers {
			if !has(name, KindPrimary) {
				return fail("style %q: multiplier for unknown primary field %q", st.Name, name)
			}
		}
		s.styleIndex[st.Name] = i
	}
	if _, ok := s.styleIndex[s.DefaultStyle]; !ok {
		return fail("default style %q not declared", s.DefaultStyle)
	}

	// Derived fields may only read primaries or earlier derived fields.
	seen := make(map[string]bool)
	for _, f := range s.FieldsOf(KindPrimary) {
		seen[f.Name] = true
	}
	for _, d := range s.Derived {
		if !has(d.Field, KindDerived) {
			return fail("derived %q is not a derived field", d.Field)
		}
		switch {
		case d.Expr != "":
			if _, err := goja.Compile(d.Field, d.Expr, true); err != nil {
				return fail("derived %q: compile: %v", d.Field, err)
			}
		case !seen[d.Source]:
			return fail("derived %q: source %q not available", d.Field, d.Source)
		case d.Ratio <= 0:
			return fail("derived %q: ratio must be positive", d.Field)
		}
		seen[d.Field] = true
	}
	for _, f := range s.FieldsOf(KindDerived) {
		if !seen[f.Name] {
			return fail("derived field %q has no rule", f.Name)
		}
	}

	for _, c := range s.Cascade {
		if !has(c.Higher) || !has(c.Lower) {
			return fail("cascade %s>%s references unknown field", c.Higher, c.Lower)
		}
		if c.Severity != SeverityError && c.Severity != SeverityWarning {
			return fail("cascade %s>%s: unknown severity %q", c.Higher, c.Lower, c.Severity)
		}
	}
	for _, name := range s.Order {
		if !has(name) {
			return fail("order references unknown field %q", name)
		}
	}

	for _, g := range s.Gyro {
		if !has(g.Field, KindGyro) {
			return fail("gyro %q is not a gyro field", g.Field)
		}
		if !has(g.Pair, KindPrimary, KindDerived) {
			return fail("gyro %q: pair %q unknown", g.Field, g.Pair)
		}
	}
	if s.Features.Gyro != (len(s.Gyro) > 0) {
		return fail("gyro feature flag disagrees with gyro fields")
	}

	if fc := s.FireControl; fc != nil {
		if !has(fc.Field, KindFire) {
			return fail("fire control %q is not a fire field", fc.Field)
		}
		if len(fc.Bands) == 0 {
			return fail("fire control has no size bands")
		}
	}
	if s.Features.Vehicle && !has(s.VehicleField, KindPrimary, KindDerived) {
		return fail("vehicle field %q unknown", s.VehicleField)
	}
	if s.Features.RotationMode && len(s.RotationModes) == 0 {
		return fail("rotation mode enabled without modes")
	}
	return nil
}
