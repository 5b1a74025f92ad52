package stats

import "math"

// DefaultAlpha is the EWMA smoothing parameter used for trend baselines.
// Higher values react faster to recent observations.
const DefaultAlpha = 0.2

// ControlBands holds an EWMA baseline with statistical process control limits.
type ControlBands struct {
	Mean       float64
	Lower      float64
	Upper      float64
	StdDev     float64
	SampleSize int
}

// EWMA computes the exponentially weighted moving average of values
// (oldest first): s_t = alpha*v_t + (1-alpha)*s_{t-1}. Returns 0 for an
// empty input.
func EWMA(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}

	s := values[0]
	for _, v := range values[1:] {
		s = alpha*v + (1-alpha)*s
	}
	return s
}

// Bands computes EWMA control bands (mean ± k standard deviations) over
// values. Returns false when fewer than two samples are available; a band on
// a single point would have zero width and flag every future observation.
func Bands(values []float64, alpha, k float64) (ControlBands, bool) {
	n := len(values)
	if n < 2 {
		return ControlBands{}, false
	}

	mean := EWMA(values, alpha)

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	sd := math.Sqrt(sumSq / float64(n-1))

	return ControlBands{
		Mean:       mean,
		Lower:      mean - k*sd,
		Upper:      mean + k*sd,
		StdDev:     sd,
		SampleSize: n,
	}, true
}
