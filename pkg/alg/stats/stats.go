// Package stats summarizes latency samples with interpolated percentiles.
package stats

import (
	"math"
	"slices"
	"time"
)

// Well-known percentile thresholds.
const (
	PercentileMedian = 0.5
	PercentileP95    = 0.95
	PercentileP99    = 0.99
)

// Summary describes a set of latency samples.
type Summary struct {
	Count int
	Total time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Summarize sorts samples in place and returns their summary.
// Returns the zero Summary for an empty slice.
func Summarize(samples []time.Duration) Summary {
	count := len(samples)
	if count == 0 {
		return Summary{}
	}

	slices.Sort(samples)

	var total time.Duration
	for _, s := range samples {
		total += s
	}

	return Summary{
		Count: count,
		Total: total,
		Mean:  total / time.Duration(count),
		P50:   Percentile(samples, PercentileMedian),
		P95:   Percentile(samples, PercentileP95),
		P99:   Percentile(samples, PercentileP99),
		Max:   samples[count-1],
	}
}

// Percentile returns the p-th percentile of sorted using linear
// interpolation between the closest ranks. p is clamped to [0, 1].
// Returns 0 for an empty slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	count := len(sorted)
	if count == 0 {
		return 0
	}

	idx := max(0, min(p, 1)) * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower] + time.Duration(math.Round(float64(sorted[upper]-sorted[lower])*frac))
}
