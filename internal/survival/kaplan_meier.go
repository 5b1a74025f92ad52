// Package survival implements Kaplan-Meier estimation of the median reorder
// interval from censored interval observations. A censored observation is a
// reorder gap whose terminating order had not arrived by the observation
// cutoff; it shrinks the risk set for later times but never drops the
// survival curve itself.
package survival

import "sort"

// Observation is one time-to-reorder sample. Event is true when the customer
// actually reordered at Time; false when the interval was still open.
type Observation struct {
	Time  float64 `json:"time"`
	Event bool    `json:"event"`
}

// CurvePoint is one step of the estimated survival function: the probability
// that a reorder interval exceeds Time.
type CurvePoint struct {
	Time     float64 `json:"time"`
	Survival float64 `json:"survival"`
	AtRisk   int     `json:"at_risk"`
	Events   int     `json:"events"`
}

// Curve computes the Kaplan-Meier survival curve. Steps are emitted only at
// distinct times with at least one event. Returns an empty slice (never nil)
// for empty input.
func Curve(observations []Observation) []CurvePoint {
	n := len(observations)
	if n == 0 {
		return []CurvePoint{}
	}

	sorted := make([]Observation, n)
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	curve := []CurvePoint{}
	s := 1.0
	i := 0
	for i < n {
		t := sorted[i].Time
		atRisk := n - i // observations with time >= t

		events := 0
		for i < n && sorted[i].Time == t {
			if sorted[i].Event {
				events++
			}
			i++
		}

		if events == 0 {
			continue
		}

		s *= 1 - float64(events)/float64(atRisk)
		curve = append(curve, CurvePoint{
			Time:     t,
			Survival: s,
			AtRisk:   atRisk,
			Events:   events,
		})
	}

	return curve
}

// Median returns the smallest time at which estimated survival drops to 0.5
// or below. The second return is false when survival never reaches 0.5:
// heavy censoring leaves the median undefined, and callers must treat that as
// insufficient data rather than substituting a number.
func Median(observations []Observation) (float64, bool) {
	for _, point := range Curve(observations) {
		if point.Survival <= 0.5 {
			return point.Time, true
		}
	}
	return 0, false
}
