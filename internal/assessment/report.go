package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wellcrafted/accountpulse/internal/cache"
	"github.com/wellcrafted/accountpulse/internal/health"
	"github.com/wellcrafted/accountpulse/internal/stats"
	"github.com/wellcrafted/accountpulse/internal/store"
	"github.com/wellcrafted/accountpulse/internal/threshold"
)

const (
	reportCacheTTL  = 5 * time.Minute
	trendWindowDays = 90
	pulseTolerance  = 0.05
)

// PortfolioParams scopes a portfolio report.
type PortfolioParams struct {
	TenantID   uuid.UUID
	SalesRepID *uuid.UUID
	AsOf       time.Time
}

// SignalBucket summarizes one classification across the portfolio.
type SignalBucket struct {
	Classification  string  `json:"classification"`
	Count           int     `json:"count"`
	PercentOfActive float64 `json:"percent_of_active"`
	RevenueShare    float64 `json:"revenue_share"`
}

// AccountPulse is a coarse book-level revenue direction: recent delivered
// revenue measured against the expected run rate implied by trailing-twelve
// revenue, with a ±5% dead band.
type AccountPulse struct {
	Direction    string  `json:"direction"` // UP, FLAT, DOWN
	DeltaPercent float64 `json:"delta_percent"`
	Summary      string  `json:"summary"`
}

// ScoreTrend compares the latest daily average revenue score against an EWMA
// control band over the trend window. Defined is false when too few snapshot
// days exist to build a band.
type ScoreTrend struct {
	Defined   bool    `json:"defined"`
	Direction string  `json:"direction,omitempty"` // UP, FLAT, DOWN
	Baseline  float64 `json:"baseline,omitempty"`
	Latest    float64 `json:"latest,omitempty"`
}

// PortfolioReport is the aggregate health of a tenant's (or rep's) customers.
// WeightedScore is nil when total revenue is zero: insufficient revenue data
// rather than a fabricated number.
type PortfolioReport struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	Customers       int            `json:"customers"`
	ActiveCustomers int            `json:"active_customers"`
	Buckets         []SignalBucket `json:"buckets"`
	UnweightedScore *float64       `json:"unweighted_score"`
	WeightedScore   *float64       `json:"weighted_score"`
	Pulse           AccountPulse   `json:"pulse"`
	Trend           ScoreTrend     `json:"trend"`
}

// Portfolio builds (or serves from cache) the portfolio report for a scope.
func (s *Service) Portfolio(ctx context.Context, params PortfolioParams) (*PortfolioReport, error) {
	scope := "tenant"
	if params.SalesRepID != nil {
		scope = params.SalesRepID.String()
	}
	cacheKey := cache.PortfolioReportKey(params.TenantID, scope)

	if cached, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var report PortfolioReport
		if err := json.Unmarshal(cached, &report); err == nil {
			return &report, nil
		}
	}

	report, err := s.buildPortfolio(ctx, params)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, cacheKey, payload, reportCacheTTL); err != nil {
			slog.Warn("portfolio report cache write failed", "error", err)
		}
	}
	return report, nil
}

func (s *Service) buildPortfolio(ctx context.Context, params PortfolioParams) (*PortfolioReport, error) {
	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}

	rows, err := s.store.ListThresholds(ctx, params.TenantID)
	if err != nil {
		return nil, fmt.Errorf("loading thresholds: %w", err)
	}
	resolver, err := threshold.NewResolver(rows)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", params.TenantID, err)
	}

	inputs, err := s.store.ListCustomerHealthInputs(ctx, store.InputFilter{
		TenantID:   params.TenantID,
		SalesRepID: params.SalesRepID,
		AsOf:       asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("loading customer health inputs: %w", err)
	}

	report := &PortfolioReport{GeneratedAt: asOf, Customers: len(inputs)}

	counts := map[health.Classification]int{}
	revenues := map[health.Classification]float64{}
	entries := make([]health.PortfolioEntry, 0, len(inputs))
	var bookTTM, bookLast60, bookLast90, activeRevenue float64

	for _, input := range inputs {
		tier, err := resolver.Resolve(input.AccountType, input.AccountPriority)
		if err != nil {
			return nil, fmt.Errorf("resolving threshold: %w", err)
		}

		daysSince := -1.0
		if input.LastOrderDate != nil {
			daysSince = asOf.Sub(*input.LastOrderDate).Hours() / 24
		}
		input.IsDormant = isDormant(daysSince, tier.DormantDays, s.cfg.DormantLookbackDays)

		classification := health.Classify(input, tier)
		counts[classification]++
		revenues[classification] += input.TrailingTwelveRevenue
		entries = append(entries, health.PortfolioEntry{
			Classification:        classification,
			TrailingTwelveRevenue: input.TrailingTwelveRevenue,
		})

		bookTTM += input.TrailingTwelveRevenue
		bookLast60 += input.Last60Revenue
		bookLast90 += input.Last90Revenue
		if input.TrailingTwelveRevenue > 0 {
			report.ActiveCustomers++
			activeRevenue += input.TrailingTwelveRevenue
		}
	}

	for _, classification := range health.Classifications {
		bucket := SignalBucket{
			Classification: string(classification),
			Count:          counts[classification],
		}
		if report.ActiveCustomers > 0 {
			bucket.PercentOfActive = 100 * float64(counts[classification]) / float64(report.ActiveCustomers)
		}
		if activeRevenue > 0 {
			bucket.RevenueShare = revenues[classification] / activeRevenue
		}
		report.Buckets = append(report.Buckets, bucket)
	}

	if scores, ok := health.PortfolioScores(entries, nil); ok {
		unweighted := scores.UnweightedScore
		report.UnweightedScore = &unweighted
		if scores.WeightedOK {
			weighted := scores.WeightedScore
			report.WeightedScore = &weighted
		}
	}

	report.Pulse = accountPulse(bookTTM, bookLast60, bookLast90)
	report.Trend = s.scoreTrend(ctx, params.TenantID, asOf)

	return report, nil
}

// accountPulse rates the whole book's recent revenue against the run rate the
// trailing-twelve baseline implies (TTM/12 per month), inside a ±5% dead band.
func accountPulse(bookTTM, bookLast60, bookLast90 float64) AccountPulse {
	expected90 := bookTTM / 12 * 3
	expected60 := bookTTM / 12 * 2

	if expected60 <= 0 {
		return AccountPulse{Direction: "FLAT", Summary: "Insufficient data for trend"}
	}

	delta := (bookLast60 - expected60) / expected60 * 100

	direction := "FLAT"
	if expected90 > 0 && bookLast90 >= expected90*(1+pulseTolerance) {
		direction = "UP"
	} else if bookLast60 < expected60*(1-pulseTolerance) {
		direction = "DOWN"
	}

	verb := "up"
	if bookLast60 < expected60 {
		verb = "down"
	}
	summary := fmt.Sprintf("Last 60 days %s %.1f%% vs baseline", verb, abs(delta))

	return AccountPulse{Direction: direction, DeltaPercent: delta, Summary: summary}
}

// scoreTrend reads the recent daily snapshot averages and places the latest
// day against an EWMA control band. Trend problems are reported as undefined,
// never as report failures.
func (s *Service) scoreTrend(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ScoreTrend {
	daily, err := s.store.ListDailyScoreAverages(ctx, tenantID, asOf.AddDate(0, 0, -trendWindowDays))
	if err != nil {
		slog.Warn("portfolio trend load failed", "tenant_id", tenantID, "error", err)
		return ScoreTrend{}
	}
	if len(daily) < 3 {
		return ScoreTrend{}
	}

	values := make([]float64, len(daily))
	for i, day := range daily {
		values[i] = day.AvgRevenueScore
	}

	latest := values[len(values)-1]
	bands, ok := stats.Bands(values[:len(values)-1], stats.DefaultAlpha, 2)
	if !ok {
		return ScoreTrend{}
	}

	direction := "FLAT"
	if latest > bands.Upper {
		direction = "UP"
	} else if latest < bands.Lower {
		direction = "DOWN"
	}

	return ScoreTrend{Defined: true, Direction: direction, Baseline: bands.Mean, Latest: latest}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
