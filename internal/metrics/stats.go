package metrics

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// sampleStd returns the sample standard deviation (n-1 denominator), or 0
// when fewer than two values are given.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// worstMean returns the mean of the n smallest values. Returns NaN when n is
// zero or exceeds the slice length.
func worstMean(values []float64, n int) float64 {
	if n <= 0 || n > len(values) {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean(sorted[:n])
}
