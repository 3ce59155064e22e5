package games

import (
	"errors"
	"fmt"
)

// FieldKind classifies how a field's value is produced.
type FieldKind string

const (
	KindPrimary FieldKind = "primary"
	KindDerived FieldKind = "derived"
	KindGyro    FieldKind = "gyro"
	KindFire    FieldKind = "fire"
)

// Severity of a failed cascade rule.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Range is an inclusive integer bound.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Clamp pins v into the range. A value of x.5 has already been rounded by the caller.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Field describes one tunable setting of a game.
type Field struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Range     Range     `json:"range"`
	Kind      FieldKind `json:"kind"`
	Stability float64   `json:"stability,omitempty"`
}

// Style is a named play-style archetype: a base value plus per-field multipliers.
type Style struct {
	Name        string             `json:"name"`
	Label       string             `json:"label"`
	Base        float64            `json:"base"`
	Gyro        float64            `json:"gyro"`
	Multipliers map[string]float64 `json:"multipliers"`

	Description    string   `json:"description,omitempty"`
	RecommendedFor []string `json:"recommendedFor,omitempty"`
	Tips           []string `json:"tips,omitempty"`
}

// Derived computes a field from already generated values, either as a
// fixed ratio of a source field or through a sandboxed expression.
type Derived struct {
	Field  string  `json:"field"`
	Source string  `json:"source,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
	Expr   string  `json:"expr,omitempty"`
}

// CascadeRule requires value(Higher) >= value(Lower) * MinRatio.
type CascadeRule struct {
	Higher   string   `json:"higher"`
	Lower    string   `json:"lower"`
	MinRatio float64  `json:"minRatio"`
	Severity Severity `json:"severity"`
}

// GyroField pairs a gyroscope field with the non-gyro field it mirrors.
type GyroField struct {
	Field string  `json:"field"`
	Pair  string  `json:"pair"`
	Decay float64 `json:"decay"`
}

// FireControl configures the fire-button size field.
type FireControl struct {
	Field        string           `json:"field"`
	Bands        map[string]Range `json:"bands"`
	ClassOffsets map[string]int   `json:"classOffsets,omitempty"`
	NarrowWidth  int              `json:"narrowWidth,omitempty"`
	NarrowOffset int              `json:"narrowOffset,omitempty"`
	WideWidth    int              `json:"wideWidth,omitempty"`
	WideOffset   int              `json:"wideOffset,omitempty"`
}

// Features flags optional setting groups.
type Features struct {
	Gyro         bool `json:"gyro"`
	Vehicle      bool `json:"vehicle"`
	RotationMode bool `json:"rotationMode"`
}

// Schema is the declarative description of one game's settings.
type Schema struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	ReferenceAspect float64       `json:"referenceAspect"`
	BaseRange       Range         `json:"baseRange"`
	DefaultStyle    string        `json:"defaultStyle"`
	Features        Features      `json:"features"`
	// Tips apply to every style; GyroTips only while the gyroscope is on.
	Tips            []string      `json:"tips,omitempty"`
	GyroTips        []string      `json:"gyroTips,omitempty"`
	Fields          []Field       `json:"fields"`
	Styles          []Style       `json:"styles"`
	Derived         []Derived     `json:"derived,omitempty"`
	Cascade         []CascadeRule `json:"cascade,omitempty"`
	Order           []string      `json:"order"`
	Gyro            []GyroField   `json:"gyro,omitempty"`
	FireControl     *FireControl  `json:"fireControl,omitempty"`
	VehicleField    string        `json:"vehicleField,omitempty"`
	RotationModes   []string      `json:"rotationModes,omitempty"`

	fieldIndex map[string]int
	styleIndex map[string]int
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Style returns the named archetype.
func (s *Schema) Style(name string) (*Style, error) {
	i, ok := s.styleIndex[name]
	if !ok {
		return nil, &NotFoundError{Kind: "style", Name: name, Game: s.ID}
	}
	return &s.Styles[i], nil
}

// TipsFor lists the advice shown with a generated profile: the style's own
// tips, then gyroscope tips when gyro is on, then the game-wide tips.
func (s *Schema) TipsFor(st *Style, gyroOn bool) []string {
	tips := make([]string, 0, len(st.Tips)+len(s.GyroTips)+len(s.Tips))
	tips = append(tips, st.Tips...)
	if gyroOn && s.Features.Gyro {
		tips = append(tips, s.GyroTips...)
	}
	return append(tips, s.Tips...)
}

// StyleNames lists archetypes in declaration order.
func (s *Schema) StyleNames() []string {
	names := make([]string, len(s.Styles))
	for i, st := range s.Styles {
		names[i] = st.Name
	}
	return names
}

// FieldsOf returns the fields of one kind in declaration order.
func (s *Schema) FieldsOf(kind FieldKind) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// IsGyro reports whether name is a gyroscope field.
func (s *Schema) IsGyro(name string) bool {
	f, ok := s.Field(name)
	return ok && f.Kind == KindGyro
}

// DefaultRotationMode is the first declared rotation mode, or "".
func (s *Schema) DefaultRotationMode() string {
	if len(s.RotationModes) == 0 {
		return ""
	}
	return s.RotationModes[0]
}

// ErrNotFound is matched by every lookup miss in this package.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an unknown game or play style.
type NotFoundError struct {
	Kind string
	Name string
	Game string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "style" {
		return fmt.Sprintf("games: style %q not found for game %q", e.Name, e.Game)
	}
	return fmt.Sprintf("games: %s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
