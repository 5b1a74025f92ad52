// Package stats provides the order-independent statistical primitives used by
// the health engine. All functions copy their input before sorting; callers
// keep ownership of the slices they pass in.
package stats

import (
	"math"
	"sort"
)

// Median returns the middle value of the input (mean of the two middle values
// for even counts). The second return is false when the input is empty.
func Median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// on the fractional rank r = (p/100)*(n-1). Percentile(v, 50) equals
// Median(v) for any v. The second return is false when the input is empty.
func Percentile(values []float64, p float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0], true
	}
	if p >= 100 {
		return sorted[n-1], true
	}

	rank := (p / 100) * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower], true
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), true
}
