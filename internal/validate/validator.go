// Package validate scores a settings profile against its game schema.
package validate

import (
	"fmt"

	"github.com/MJE43/redsettings-go/internal/games"
)

// Per-rule deductions from a starting score of 100.
const (
	PenaltyRange      = 10
	PenaltyCascade    = 10
	PenaltyPeripheral = 5
	PenaltyProportion = 3
	PenaltyGyro       = 3

	// maxDrop is the largest allowed relative drop between adjacent ordered fields.
	maxDrop = 0.5
	// maxGyroShare caps a gyro field relative to its paired field.
	maxGyroShare = 0.6
)

// Rule names carried on issues.
const (
	RuleRange      = "range"
	RuleMissing    = "missing"
	RuleCascade    = "cascade"
	RuleProportion = "proportion"
	RuleGyro       = "gyro"
)

// Issue is one failed check.
type Issue struct {
	Rule    string `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Penalty int    `json:"penalty"`
}

// Report is the outcome of validating one profile.
type Report struct {
	Score           int      `json:"score"`
	IsValid         bool     `json:"isValid"`
	Errors          []Issue  `json:"errors"`
	Warnings        []Issue  `json:"warnings"`
	Stats           Stats    `json:"stats"`
	Recommendations []string `json:"recommendations"`
}

// Validator resolves schemas by game id.
type Validator struct {
	registry *games.Registry
}

// New returns a Validator over reg.
func New(reg *games.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate checks values against the schema registered for gameID.
func (v *Validator) Validate(gameID string, values map[string]int) (Report, error) {
	s, err := v.registry.Schema(gameID)
	if err != nil {
		return Report{}, err
	}
	return Check(s, values), nil
}

// Check runs every rule. It has no side effects.
func Check(s *games.Schema, values map[string]int) Report {
	r := Report{Errors: []Issue{}, Warnings: []Issue{}}

	for _, f := range s.Fields {
		v, ok := values[f.Name]
		if !ok {
			r.Errors = append(r.Errors, Issue{RuleMissing, f.Name, fmt.Sprintf("%s is missing", f.Label), PenaltyRange})
			continue
		}
		// Gyro fields read 0 when the gyroscope is off.
		if f.Kind == games.KindGyro && v == 0 {
			continue
		}
		if !f.Range.Contains(v) {
			r.Errors = append(r.Errors, Issue{RuleRange, f.Name,
				fmt.Sprintf("%s = %d outside [%d, %d]", f.Label, v, f.Range.Min, f.Range.Max), PenaltyRange})
		}
	}

	for _, c := range s.Cascade {
		hi, okHi := values[c.Higher]
		lo, okLo := values[c.Lower]
		if !okHi || !okLo || float64(hi) >= float64(lo)*c.MinRatio {
			continue
		}
		msg := fmt.Sprintf("%s (%d) should be at least %.2fx %s (%d)", c.Higher, hi, c.MinRatio, c.Lower, lo)
		if c.Severity == games.SeverityError {
			r.Errors = append(r.Errors, Issue{RuleCascade, c.Lower, msg, PenaltyCascade})
		} else {
			r.Warnings = append(r.Warnings, Issue{RuleCascade, c.Lower, msg, PenaltyPeripheral})
		}
	}

	for i := 0; i+1 < len(s.Order); i++ {
		hi, okHi := values[s.Order[i]]
		lo, okLo := values[s.Order[i+1]]
		if !okHi || !okLo || hi <= 0 {
			continue
		}
		if drop := float64(hi-lo) / float64(hi); drop > maxDrop {
			r.Warnings = append(r.Warnings, Issue{RuleProportion, s.Order[i+1],
				fmt.Sprintf("%s drops %.0f%% from %s", s.Order[i+1], drop*100, s.Order[i]), PenaltyProportion})
		}
	}

	for _, gf := range s.Gyro {
		g, okG := values[gf.Field]
		p, okP := values[gf.Pair]
		if !okG || !okP || g == 0 {
			continue
		}
		if float64(g) > float64(p)*maxGyroShare {
			r.Warnings = append(r.Warnings, Issue{RuleGyro, gf.Field,
				fmt.Sprintf("%s (%d) exceeds %.0f%% of %s (%d)", gf.Field, g, maxGyroShare*100, gf.Pair, p), PenaltyGyro})
		}
	}

	score := 100
	for _, is := range r.Errors {
		score -= is.Penalty
	}
	for _, is := range r.Warnings {
		score -= is.Penalty
	}
	r.Score = max(score, 0)
	r.IsValid = len(r.Errors) == 0
	r.Stats = computeStats(s.Order, values)
	r.Recommendations = recommend(r)
	return r
}
