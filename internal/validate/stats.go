package validate

import "math"

// Stats describes the ordered field sequence.
type Stats struct {
	Count     int       `json:"count"`
	Min       int       `json:"min"`
	Max       int       `json:"max"`
	Spread    int       `json:"spread"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"stdDev"`
	CV        float64   `json:"coefficientOfVariation"`
	Ratios    []float64 `json:"ratios"`
	Monotonic bool      `json:"monotonic"`
}

// computeStats summarizes the values named by order, skipping absent fields.
// Std-dev is the population form.
func computeStats(order []string, values map[string]int) Stats {
	seq := make([]int, 0, len(order))
	for _, name := range order {
		if v, ok := values[name]; ok {
			seq = append(seq, v)
		}
	}
	st := Stats{Count: len(seq), Ratios: []float64{}, Monotonic: true}
	if len(seq) == 0 {
		return st
	}

	st.Min, st.Max = seq[0], seq[0]
	sum := 0.0
	for _, v := range seq {
		st.Min = min(st.Min, v)
		st.Max = max(st.Max, v)
		sum += float64(v)
	}
	st.Spread = st.Max - st.Min
	st.Mean = sum / float64(len(seq))

	var sq float64
	for _, v := range seq {
		d := float64(v) - st.Mean
		sq += d * d
	}
	st.StdDev = math.Sqrt(sq / float64(len(seq)))
	if st.Mean != 0 {
		st.CV = st.StdDev / st.Mean
	}

	for i := 0; i+1 < len(seq); i++ {
		if seq[i+1] >= seq[i] {
			st.Monotonic = false
		}
		if seq[i+1] != 0 {
			st.Ratios = append(st.Ratios, float64(seq[i])/float64(seq[i+1]))
		}
	}
	return st
}
