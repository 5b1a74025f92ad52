// Package health holds the pure per-customer and portfolio scoring logic:
// revenue-trend classification, risk-status derivation, and portfolio
// aggregation. Nothing in this package touches the datastore.
package health

import "github.com/wellcrafted/accountpulse/pkg/models"

// Classification is a customer's revenue-trend signal.
type Classification string

const (
	Growing   Classification = "GROWING"
	Stable    Classification = "STABLE"
	Shrinking Classification = "SHRINKING"
	Dormant   Classification = "DORMANT"
)

// Classifications lists all signals in display order.
var Classifications = []Classification{Growing, Stable, Shrinking, Dormant}

// Classify maps a customer's revenue trend and dormancy flag to a signal.
// Deterministic and side-effect free on identical input.
//
// The trailing-twelve revenue sets the baseline: a customer is expected to do
// TTM/12 per month, so 3 months' worth over the last 90 days and 2 months'
// worth over the last 60. The threshold's decline percent is the shared
// tolerance on both sides of that baseline.
func Classify(input models.CustomerHealthInput, threshold models.HealthThreshold) Classification {
	if input.IsDormant {
		return Dormant
	}

	tolerance := threshold.RevenueDeclinePercent
	expected90 := input.TrailingTwelveRevenue / 12 * 3
	expected60 := input.TrailingTwelveRevenue / 12 * 2

	if input.Last90Revenue >= expected90*(1+tolerance) {
		return Growing
	}
	if input.Last60Revenue <= expected60*(1-tolerance) {
		return Shrinking
	}
	return Stable
}

// DeriveRiskStatus combines the revenue signal with order recency into the
// composite risk status written back to the customer record. Priority:
// DORMANT > AT_RISK_CADENCE > AT_RISK_REVENUE > HEALTHY.
//
// daysSinceLastOrder below zero means the customer has never ordered; recency
// cannot put such a customer at cadence risk.
func DeriveRiskStatus(classification Classification, daysSinceLastOrder float64, threshold models.HealthThreshold) string {
	if classification == Dormant {
		return models.RiskDormant
	}

	cadenceLimit := float64(threshold.DormantDays) * (1 + threshold.GracePeriodPercent)
	if daysSinceLastOrder >= 0 && daysSinceLastOrder > cadenceLimit {
		return models.RiskAtRiskCadence
	}

	if classification == Shrinking {
		return models.RiskAtRiskRevenue
	}
	return models.RiskHealthy
}
