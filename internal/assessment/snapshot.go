package assessment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wellcrafted/accountpulse/internal/health"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

// buildSnapshot computes the day's snapshot row for one customer.
//
// Revenue score is the classification's point value. Cadence score is 100
// while the customer is inside their estimated reorder interval, decaying
// linearly to 0 as they approach the dormancy limit; it is 0 with an
// explanatory note when the Kaplan-Meier median is undefined. Sample
// utilization is the share of interval observations that were actual reorder
// events; low values mean the cadence estimate leans heavily on censored data.
func buildSnapshot(
	input models.CustomerHealthInput,
	classification health.Classification,
	riskStatus string,
	daysSince float64,
	cadenceMedian float64,
	cadenceOK bool,
	observations []models.OrderIntervalObservation,
	tier models.HealthThreshold,
	asOf time.Time,
) models.AccountHealthSnapshot {
	snap := models.AccountHealthSnapshot{
		ID:             uuid.New(),
		TenantID:       input.TenantID,
		CustomerID:     input.CustomerID,
		SnapshotDate:   dateOnly(asOf),
		Classification: string(classification),
		RiskStatus:     riskStatus,
		RevenueScore:   health.DefaultPoints[classification],
		CreatedAt:      asOf,
	}

	var notes []string

	if len(observations) > 0 {
		events := 0
		for _, obs := range observations {
			if obs.Event {
				events++
			}
		}
		snap.SampleUtilization = 100 * float64(events) / float64(len(observations))
	}

	if cadenceOK {
		snap.CadenceScore = cadenceScore(daysSince, cadenceMedian, tier)
		notes = append(notes, fmt.Sprintf("cadence median %.1fd", cadenceMedian))
	} else {
		notes = append(notes, "insufficient cadence data")
	}

	if input.IsDormant {
		notes = append(notes, "dormant")
	}

	if len(notes) > 0 {
		joined := strings.Join(notes, "; ")
		snap.Notes = &joined
	}
	return snap
}

// cadenceScore rates order recency on a 0-100 scale: 100 inside the expected
// reorder interval, linear decay between the grace-adjusted interval and the
// dormancy limit, 0 beyond it.
func cadenceScore(daysSince, cadenceMedian float64, tier models.HealthThreshold) float64 {
	if daysSince < 0 {
		// Never ordered: cadence cannot be rated.
		return 0
	}

	expected := cadenceMedian * (1 + tier.GracePeriodPercent)
	if daysSince <= expected {
		return 100
	}

	limit := float64(tier.DormantDays) * (1 + tier.GracePeriodPercent)
	if daysSince >= limit || limit <= expected {
		return 0
	}

	return 100 * (1 - (daysSince-expected)/(limit-expected))
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
