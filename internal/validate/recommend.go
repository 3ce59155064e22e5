package validate

import "fmt"

const (
	regenerateBelow = 70
	maxSpread       = 120
)

func recommend(r Report) []string {
	var out []string
	if r.Score < regenerateBelow {
		out = append(out, fmt.Sprintf("Score %d is low: regenerate these settings.", r.Score))
	}
	if len(r.Errors) > 0 {
		out = append(out, fmt.Sprintf("Fix %d error(s) before using this profile.", len(r.Errors)))
	}
	if r.Stats.Spread > maxSpread {
		out = append(out, fmt.Sprintf("Spread of %d between fastest and slowest scope is wide; consider a calmer style.", r.Stats.Spread))
	}
	if r.Stats.Count > 1 && !r.Stats.Monotonic {
		out = append(out, "Scope values should decrease from close range to long range.")
	}
	if len(out) == 0 {
		out = append(out, "Settings look good.")
	}
	return out
}
