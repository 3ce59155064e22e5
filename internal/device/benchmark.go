package device

import (
	"math"
	"time"
)

const (
	benchmarkIterations = 100_000

	// Durations at or below fastBound score 1, at or above slowBound score 0.
	fastBound = 2 * time.Millisecond
	slowBound = 50 * time.Millisecond
)

var benchmarkSink float64

// RunBenchmark times the fixed CPU workload.
func RunBenchmark() time.Duration {
	start := time.Now()
	var acc float64
	for i := 0; i < benchmarkIterations; i++ {
		acc += math.Sqrt(float64(i)) * math.Sin(float64(i)/1000)
	}
	benchmarkSink = acc
	return time.Since(start)
}

// ScoreDuration maps a benchmark duration onto [0,1], higher is faster.
func ScoreDuration(d time.Duration) float64 {
	if d <= fastBound {
		return 1
	}
	if d >= slowBound {
		return 0
	}
	return 1 - float64(d-fastBound)/float64(slowBound-fastBound)
}
